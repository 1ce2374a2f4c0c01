package libgl

import (
	"fmt"

	"emerald/libral"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// framebufferKey identifies a combination of render targets. Zero view ids mean no attachment.
type framebufferKey struct {
	color, colorLayer uint32
	depth, depthLayer uint32
}

func keyOf(color, depth libral.RenderTarget) framebufferKey {
	var key framebufferKey
	if color.View != nil {
		key.color, key.colorLayer = color.View.Id(), uint32(color.Layer)
	}
	if depth.View != nil {
		key.depth, key.depthLayer = depth.View.Id(), uint32(depth.Layer)
	}
	return key
}

func (key framebufferKey) references(view uint32) bool {
	return key.color == view || key.depth == view
}

type framebuffer struct {
	glId uint32
}

// FIXME: https://forums.developer.nvidia.com/t/framebuffer-incomplete-when-attaching-color-buffers-of-different-sizes-with-dsa/211550
func newFramebuffer(color, depth libral.RenderTarget) (*framebuffer, error) {
	fb := &framebuffer{}
	gl.CreateFramebuffers(1, &fb.glId)
	if color.View != nil {
		fb.attach(gl.COLOR_ATTACHMENT0, color)
		gl.NamedFramebufferDrawBuffer(fb.glId, gl.COLOR_ATTACHMENT0)
	} else {
		gl.NamedFramebufferDrawBuffer(fb.glId, gl.NONE)
		gl.NamedFramebufferReadBuffer(fb.glId, gl.NONE)
	}
	if depth.View != nil {
		fb.attach(gl.DEPTH_ATTACHMENT, depth)
	}
	if err := fb.Check(gl.DRAW_FRAMEBUFFER); err != nil {
		fb.Delete()
		return nil, err
	}
	return fb, nil
}

func (fb *framebuffer) Id() uint32 {
	return fb.glId
}

func (fb *framebuffer) SetDebugLabel(label string) {
	setObjectLabel(gl.FRAMEBUFFER, fb.glId, label)
}

// attach binds a single layer of layered views and the whole of 2D views.
func (fb *framebuffer) attach(attachment uint32, target libral.RenderTarget) {
	view := target.View
	if view.Info.Type == libral.Texture2D {
		gl.NamedFramebufferTexture(fb.glId, attachment, view.Id(), 0)
		return
	}
	// https://community.intel.com/t5/Graphics/glNamedFramebufferTextureLayer-rejects-cubemaps-of-any-kind/td-p/1167643
	if view.Info.Type == libral.TextureCube && GlEnv.UseIntelCubemapDsaFix {
		prevDraw := State.DrawFramebuffer
		prevRead := State.ReadFramebuffer
		State.BindFramebuffer(gl.FRAMEBUFFER, fb.glId)
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, view.Id())
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+target.Layer), view.Id(), 0)
		State.ForgetTexture(view.Id())
		State.BindDrawFramebuffer(prevDraw)
		State.BindReadFramebuffer(prevRead)
		return
	}
	gl.NamedFramebufferTextureLayer(fb.glId, attachment, view.Id(), 0, int32(target.Layer))
}

func (fb *framebuffer) Check(target uint32) error {
	status := gl.CheckNamedFramebufferStatus(fb.glId, target)
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return nil
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return fmt.Errorf("an attachment is framebuffer incomplete (GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT)")
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return fmt.Errorf("the framebuffer has no attachments (GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT)")
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return fmt.Errorf("the object type of a draw attachment is none (GL_FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER)")
	case gl.FRAMEBUFFER_INCOMPLETE_READ_BUFFER:
		return fmt.Errorf("the object type of the read attachment is none (GL_FRAMEBUFFER_INCOMPLETE_READ_BUFFER)")
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return fmt.Errorf("the combination of internal formats of the attachments is not supported (GL_FRAMEBUFFER_UNSUPPORTED)")
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return fmt.Errorf("the attachments have different sampling (GL_FRAMEBUFFER_INCOMPLETE_MULTISAMPLE)")
	case gl.FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS:
		return fmt.Errorf("layered and unlayered attachments are mixed (GL_FRAMEBUFFER_INCOMPLETE_LAYER_TARGETS)")
	}
	return fmt.Errorf("unknown framebuffer status: %X", status)
}

func (fb *framebuffer) Delete() {
	gl.DeleteFramebuffers(1, &fb.glId)
	fb.glId = 0
}
