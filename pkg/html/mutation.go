package html

// MutationType distinguishes the kinds of tree changes an observer sees.
type MutationType int

const (
	MutationChildList MutationType = iota
	MutationAttributes
)

func (t MutationType) String() string {
	if t == MutationAttributes {
		return "attributes"
	}
	return "childList"
}

// MutationRecord describes one change to the tree.
type MutationRecord struct {
	Type          MutationType
	Target        *Node
	Added         []*Node
	Removed       []*Node
	AttributeName string
	OldValue      string
}

// ObserveOptions selects which changes are reported, mirroring
// MutationObserverInit.
type ObserveOptions struct {
	ChildList  bool
	Attributes bool
	Subtree    bool
}

// MutationObserver collects records for the nodes it observes and hands them
// to its callback in batches. Delivery goes through a dispatcher: by default
// records are delivered synchronously, a host with an event loop installs
// one that defers delivery to its next task.
type MutationObserver struct {
	callback func([]MutationRecord)
	dispatch func(func())
	records  []MutationRecord
	pending  bool
	targets  []*Node
}

type registration struct {
	observer *MutationObserver
	options  ObserveOptions
}

func NewMutationObserver(callback func([]MutationRecord)) *MutationObserver {
	return &MutationObserver{callback: callback}
}

// SetDispatcher changes how batched records are delivered. nil restores
// synchronous delivery.
func (o *MutationObserver) SetDispatcher(dispatch func(func())) {
	o.dispatch = dispatch
}

// Observe starts watching target. Observing the same node again replaces the
// previous options.
func (o *MutationObserver) Observe(target *Node, opts ObserveOptions) {
	for _, r := range target.observers {
		if r.observer == o {
			r.options = opts
			return
		}
	}
	target.observers = append(target.observers, &registration{observer: o, options: opts})
	o.targets = append(o.targets, target)
}

// Disconnect stops all observation and drops undelivered records.
func (o *MutationObserver) Disconnect() {
	for _, t := range o.targets {
		kept := t.observers[:0]
		for _, r := range t.observers {
			if r.observer != o {
				kept = append(kept, r)
			}
		}
		t.observers = kept
	}
	o.targets = nil
	o.records = nil
}

// TakeRecords returns and clears the undelivered records.
func (o *MutationObserver) TakeRecords() []MutationRecord {
	recs := o.records
	o.records = nil
	return recs
}

func (o *MutationObserver) enqueue(rec MutationRecord) {
	o.records = append(o.records, rec)
	if o.pending {
		return
	}
	o.pending = true
	if o.dispatch == nil {
		o.deliver()
		return
	}
	o.dispatch(o.deliver)
}

func (o *MutationObserver) deliver() {
	o.pending = false
	recs := o.TakeRecords()
	if len(recs) == 0 || o.callback == nil {
		return
	}
	o.callback(recs)
}

// notify hands rec to every interested observer registered on n or, for
// subtree registrations, on one of its ancestors. Each observer sees a record
// at most once.
func (n *Node) notify(rec MutationRecord) {
	var seen map[*MutationObserver]bool
	for p := n; p != nil; p = p.Parent {
		for _, r := range p.observers {
			if p != n && !r.options.Subtree {
				continue
			}
			if rec.Type == MutationChildList && !r.options.ChildList {
				continue
			}
			if rec.Type == MutationAttributes && !r.options.Attributes {
				continue
			}
			if seen[r.observer] {
				continue
			}
			if seen == nil {
				seen = make(map[*MutationObserver]bool)
			}
			seen[r.observer] = true
			r.observer.enqueue(rec)
		}
	}
}
