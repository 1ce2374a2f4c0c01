package libgl

import (
	"fmt"
	"log"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type LabeledGlObject interface {
	SetDebugLabel(string)
}

func setObjectLabel(namespace, id uint32, label string) {
	if label == "" {
		return
	}
	bytes := []byte(label)
	gl.ObjectLabel(namespace, id, int32(len(bytes)), (*uint8)(unsafe.Pointer(&bytes[0])))
}

func pushDebugGroup(name string) {
	bytes := []byte(name + "\x00")
	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 0, int32(len(bytes)-1), &bytes[0])
}

func popDebugGroup() {
	gl.PopDebugGroup()
}

func debugSeverityString(severity uint32) string {
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		return "CRITICAL_ERROR"
	case gl.DEBUG_SEVERITY_MEDIUM:
		return "ERROR"
	case gl.DEBUG_SEVERITY_LOW:
		return "WARNING"
	case gl.DEBUG_SEVERITY_NOTIFICATION:
		return "INFO"
	}
	return "UNKNOWN"
}

func debugTypeString(gltype uint32) string {
	switch gltype {
	case gl.DEBUG_TYPE_ERROR:
		return "ERROR"
	case gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR:
		return "DEPRECATED_BEHAVIOR"
	case gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:
		return "UNDEFINED_BEHAVIOR"
	case gl.DEBUG_TYPE_PERFORMANCE:
		return "PERFORMANCE"
	case gl.DEBUG_TYPE_PORTABILITY:
		return "PORTABILITY"
	case gl.DEBUG_TYPE_OTHER:
		return "OTHER"
	case gl.DEBUG_TYPE_MARKER:
		return "MARKER"
	}
	return "UNKNOWN"
}

func debugSourceString(source uint32) string {
	switch source {
	case gl.DEBUG_SOURCE_API:
		return "GRAPHICS_LIBRARY"
	case gl.DEBUG_SOURCE_SHADER_COMPILER:
		return "SHADER_COMPILER"
	case gl.DEBUG_SOURCE_WINDOW_SYSTEM:
		return "WINDOW_SYSTEM"
	case gl.DEBUG_SOURCE_THIRD_PARTY:
		return "THIRD_PARTY"
	case gl.DEBUG_SOURCE_APPLICATION:
		return "APPLICATION"
	case gl.DEBUG_SOURCE_OTHER:
		return "OTHER"
	}
	return "UNKNOWN"
}

// installDebugCallback logs driver messages. High severity messages panic with the active debug groups.
func installDebugCallback() {
	var groupStack []string
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	gl.DebugMessageCallback(
		func(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
			if gltype == gl.DEBUG_TYPE_PUSH_GROUP {
				groupStack = append(groupStack, message)
				return
			} else if gltype == gl.DEBUG_TYPE_POP_GROUP {
				if len(groupStack) > 0 {
					groupStack = groupStack[:len(groupStack)-1]
				}
				return
			}
			err := fmt.Sprintf("[%v] %v #%v from %v: %v", debugSeverityString(severity), debugTypeString(gltype), id, debugSourceString(source), message)
			if severity == gl.DEBUG_SEVERITY_HIGH {
				log.Panicf("%v\ndebug stack: %v", err, strings.Join(groupStack, " > "))
			}
			log.Println(err)
		}, nil)
	// Buffer usage hints and program recompilation notices
	disabledMessages := []uint32{131185}
	gl.DebugMessageControl(gl.DEBUG_SOURCE_API, gl.DEBUG_TYPE_OTHER, gl.DONT_CARE, int32(len(disabledMessages)), &disabledMessages[0], false)
	disabledMessages = []uint32{131222}
	gl.DebugMessageControl(gl.DEBUG_SOURCE_API, gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR, gl.DONT_CARE, int32(len(disabledMessages)), &disabledMessages[0], false)
}

func glErrorString(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	}
	return fmt.Sprintf("GL error 0x%04X", code)
}

// checkErrors drains the GL error queue.
func checkErrors(what string) error {
	var codes []string
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		codes = append(codes, glErrorString(code))
	}
	if len(codes) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", what, strings.Join(codes, ", "))
}
