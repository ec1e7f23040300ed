package menu

import (
	"sort"
	"sync"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/barnybug/gofsm"
	"github.com/pkg/errors"

	"github.com/barnybug/homepanel/lib/keypad"
	"github.com/barnybug/homepanel/services/auth"
)

// Node is a menu screen.
type Node string

const (
	Main    Node = "main"
	More    Node = "more"
	AirCond Node = "aircond"
)

// Action names emitted by transitions. Device actions are named after the
// device they open a dialog for.
const (
	ActionTemperature = "temperature"
)

const automaton = "menu"

// DefaultMenu is the panel menu. Guards see the pressed key and the session
// role; a key with no matching guard is a wrong input.
const DefaultMenu = `
menu:
  start: main
  states:
    main: {}
    more: {}
    aircond: {}
  transitions:
    main->main:
    - when: "key=='1'"
      actions: [room1]
    - when: "key=='2'"
      actions: [room2]
    - when: "key=='3'"
      actions: [room3]
    - when: "key=='4' && role=='guest'"
      actions: [room4]
    main->more:
    - when: "key=='4' && role=='admin'"
    more->more:
    - when: "key=='1' && role=='admin'"
      actions: [room4]
    - when: "key=='2' && role=='admin'"
      actions: [tv]
    more->aircond:
    - when: "key=='3' && role=='admin'"
    more->main:
    - when: "key=='4' && role=='admin'"
    aircond->aircond:
    - when: "key=='1' && role=='admin'"
      actions: [temperature]
    - when: "key=='2' && role=='admin'"
      actions: [aircond]
    aircond->more:
    - when: "key=='0' && role=='admin'"
`

// Graph is the menu as a state machine. Steps are serialised, so a graph may
// be shared.
type Graph struct {
	mu       sync.Mutex
	automata *gofsm.Automata
	menu     *gofsm.Automaton
	guards   map[string]*govaluate.EvaluableExpression
}

// LoadGraph parses a menu automaton and compiles its guards.
func LoadGraph(data []byte) (*Graph, error) {
	automata, err := gofsm.Load(data)
	if err != nil {
		return nil, errors.Wrap(err, "loading menu")
	}
	menu, ok := automata.Automaton[automaton]
	if !ok {
		return nil, errors.Errorf("no %q automaton", automaton)
	}
	if _, ok := menu.States[string(Main)]; !ok {
		return nil, errors.Errorf("menu has no %s node", Main)
	}
	guards := map[string]*govaluate.EvaluableExpression{}
	for name, transitions := range menu.Transitions {
		for _, t := range transitions {
			if _, ok := guards[t.When]; ok {
				continue
			}
			expr, err := govaluate.NewEvaluableExpression(t.When)
			if err != nil {
				return nil, errors.Wrapf(err, "guard %q on %s", t.When, name)
			}
			guards[t.When] = expr
		}
	}
	return &Graph{automata: automata, menu: menu, guards: guards}, nil
}

var (
	defaultOnce  sync.Once
	defaultGraph *Graph
)

// DefaultGraph returns the panel menu.
func DefaultGraph() *Graph {
	defaultOnce.Do(func() {
		g, err := LoadGraph([]byte(DefaultMenu))
		if err != nil {
			panic(err)
		}
		defaultGraph = g
	})
	return defaultGraph
}

// Nodes lists the menu screens.
func (self *Graph) Nodes() []Node {
	var nodes []Node
	for name := range self.menu.States {
		nodes = append(nodes, Node(name))
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// Step looks up the transition for a key pressed on a node. It returns the
// next node and the action to run before moving there. A key with no
// transition for this role returns the same node and false.
func (self *Graph) Step(from Node, role auth.Role, key keypad.Key) (Node, string, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if _, ok := self.menu.States[string(from)]; !ok {
		return from, "", false
	}
	self.automata.Restore(gofsm.AutomataState{
		automaton: {State: string(from), Since: time.Now()},
	})
	self.menu.Process(keyEvent{key: key, role: role, guards: self.guards})

	var action string
	matched := false
	for done := false; !done; {
		select {
		case a := <-self.automata.Actions:
			action = a.Name
			matched = true
		case <-self.automata.Changes:
			matched = true
		default:
			done = true
		}
	}
	if !matched {
		return from, "", false
	}
	return Node(self.menu.State.Name), action, true
}

type keyEvent struct {
	key    keypad.Key
	role   auth.Role
	guards map[string]*govaluate.EvaluableExpression
}

func (self keyEvent) Match(when string) bool {
	expr, ok := self.guards[when]
	if !ok {
		return false
	}
	parameters := map[string]interface{}{
		"key":  self.key.String(),
		"role": self.role.String(),
	}
	result, err := expr.Evaluate(parameters)
	if err != nil {
		return false
	}
	if b, ok := result.(bool); ok {
		return b
	}
	return false
}
