package tview

import (
	nav "github.com/boolean-maybe/navitree/navitree"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TreePane mirrors a navitree.Tree in a tview.TreeView. Children are
// materialized when a node is expanded or revealed.
type TreePane struct {
	*tview.TreeView

	tree  *nav.Tree
	nodes map[*nav.Node]*tview.TreeNode

	// silent suppresses the change callback while the selection is moved
	// programmatically.
	silent   bool
	onChange func(*nav.Node)
}

// NewTreePane creates a tree pane for tree.
func NewTreePane(tree *nav.Tree) *TreePane {
	p := &TreePane{
		TreeView: tview.NewTreeView(),
		tree:     tree,
		nodes:    make(map[*nav.Node]*tview.TreeNode),
	}

	root := p.wrap(tree.Root())
	root.SetExpanded(true)
	p.populate(tree.Root())
	p.SetRoot(root).SetTopLevel(1)
	if children := root.GetChildren(); len(children) > 0 {
		p.SetCurrentNode(children[0])
	}

	p.SetSelectedFunc(func(tn *tview.TreeNode) {
		n := nodeOf(tn)
		if n == nil || !n.Container {
			return
		}
		if !tn.IsExpanded() {
			p.populate(n)
		}
		tn.SetExpanded(!tn.IsExpanded())
	})
	p.SetChangedFunc(func(tn *tview.TreeNode) {
		if p.silent || p.onChange == nil {
			return
		}
		if n := nodeOf(tn); n != nil {
			p.onChange(n)
		}
	})
	return p
}

// SetChangeHandler sets the callback run when the user moves the selection.
func (p *TreePane) SetChangeHandler(handler func(*nav.Node)) *TreePane {
	p.onChange = handler
	return p
}

// CurrentNode returns the selected tree node.
func (p *TreePane) CurrentNode() *nav.Node {
	return nodeOf(p.GetCurrentNode())
}

// Rebuild drops the mirrored nodes, for example after a root was unloaded.
func (p *TreePane) Rebuild() {
	p.nodes = make(map[*nav.Node]*tview.TreeNode)
	root := p.wrap(p.tree.Root())
	root.SetExpanded(true)
	p.populate(p.tree.Root())
	p.SetRoot(root)
	if children := root.GetChildren(); len(children) > 0 {
		p.SetCurrentNode(children[0])
	}
}

// Reveal expands the ancestors of path and selects the node without firing
// the change callback. It returns false when the path does not exist.
func (p *TreePane) Reveal(path nav.NodePath) bool {
	n := p.tree.FindNodeByPath(path, false)
	if n == nil || n == p.tree.Root() {
		return false
	}

	var chain []*nav.Node
	for a := n.Parent(); a != nil; a = a.Parent() {
		chain = append(chain, a)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		p.populate(chain[i])
		p.wrap(chain[i]).SetExpanded(true)
	}

	p.silent = true
	p.SetCurrentNode(p.wrap(n))
	p.silent = false
	return true
}

// InputHandler adds Left/Right collapse and expand on top of the TreeView keys.
func (p *TreePane) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	base := p.TreeView.InputHandler()
	return p.WrapInputHandler(func(event *tcell.EventKey, setFocus func(tview.Primitive)) {
		if event.Modifiers() == 0 {
			if tn := p.GetCurrentNode(); tn != nil {
				switch event.Key() {
				case tcell.KeyRight:
					if n := nodeOf(tn); n != nil && n.Container {
						p.populate(n)
						tn.SetExpanded(true)
					}
					return
				case tcell.KeyLeft:
					tn.SetExpanded(false)
					return
				}
			}
		}
		base(event, setFocus)
	})
}

func (p *TreePane) wrap(n *nav.Node) *tview.TreeNode {
	if tn, ok := p.nodes[n]; ok {
		return tn
	}
	text := n.Text
	if n.Container {
		text += "/"
	}
	tn := tview.NewTreeNode(text).SetReference(n).SetSelectable(true)
	if n.Container {
		tn.SetColor(tcell.ColorSteelBlue)
	}
	p.nodes[n] = tn
	return tn
}

// populate mirrors the children of n once they are loaded.
func (p *TreePane) populate(n *nav.Node) {
	tn := p.wrap(n)
	children := n.Children()
	if len(tn.GetChildren()) == len(children) {
		return
	}
	tn.ClearChildren()
	for _, c := range children {
		tn.AddChild(p.wrap(c))
	}
}

func nodeOf(tn *tview.TreeNode) *nav.Node {
	if tn == nil {
		return nil
	}
	n, _ := tn.GetReference().(*nav.Node)
	return n
}
