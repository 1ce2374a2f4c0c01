package libctx

import (
	"fmt"
	"log"

	"emerald/libral"
)

// Context is a rendering context. Ubers and special materials are created per context.
type Context struct {
	Name      string
	Device    libral.Device
	Callbacks *CallbackManager
	id        int
	destroyed bool
	onDestroy []func()
}

var nextContextId int

// NewContext registers the context and notifies window-created subscribers.
func NewContext(name string, device libral.Device, callbacks *CallbackManager) *Context {
	if device == nil {
		log.Panicf("context %q has no device", name)
	}
	if callbacks == nil {
		log.Panicf("context %q has no callback manager", name)
	}
	nextContextId++
	ctx := &Context{
		Name:      name,
		Device:    device,
		Callbacks: callbacks,
		id:        nextContextId,
	}
	callbacks.Dispatch(CallbackWindowCreated, ctx)
	return ctx
}

func (ctx *Context) Id() int {
	return ctx.id
}

func (ctx *Context) String() string {
	return fmt.Sprintf("%s#%d", ctx.Name, ctx.id)
}

// OnDestroy registers fn to run after subscribers were notified and before the device is released.
func (ctx *Context) OnDestroy(fn func()) {
	ctx.onDestroy = append(ctx.onDestroy, fn)
}

func (ctx *Context) Destroyed() bool {
	return ctx.destroyed
}

// Destroy notifies window-about-to-be-destroyed subscribers and then releases the device.
func (ctx *Context) Destroy() {
	if ctx.destroyed {
		return
	}
	ctx.Callbacks.Dispatch(CallbackWindowAboutToBeDestroyed, ctx)
	for i := len(ctx.onDestroy) - 1; i >= 0; i-- {
		ctx.onDestroy[i]()
	}
	ctx.Device.Release()
	ctx.destroyed = true
}
