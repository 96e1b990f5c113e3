package drag

// Context is passed to every observer notification.
type Context struct {
	Event     *PointerEvent
	Draggable Draggable
	Droppable Droppable
}

// Observer is implemented by the host UI to react to the drag lifecycle.
type Observer interface {
	OnDragStart(ctx Context)
	OnDragUpdate(ctx Context)
	OnDragEnd(ctx Context)
}

// ObserverFuncs adapts optional callbacks to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Start  func(Context)
	Update func(Context)
	End    func(Context)
}

func (o ObserverFuncs) OnDragStart(ctx Context) {
	if o.Start != nil {
		o.Start(ctx)
	}
}

func (o ObserverFuncs) OnDragUpdate(ctx Context) {
	if o.Update != nil {
		o.Update(ctx)
	}
}

func (o ObserverFuncs) OnDragEnd(ctx Context) {
	if o.End != nil {
		o.End(ctx)
	}
}
