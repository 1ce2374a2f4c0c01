package shadowcode

import (
	"fmt"
	"log"
)

type BodyType int

const (
	BodyDepthClipVertex BodyType = iota
	BodyDepthClipFragment
	BodyDepthClipDualParaboloidVertex
	BodyDepthClipDualParaboloidFragment
	BodyDepthClipAndSquaredVertex
	BodyDepthClipAndSquaredFragment
	BodyDepthClipAndSquaredDualParaboloidVertex
	BodyDepthClipAndSquaredDualParaboloidFragment
	NumBodyTypes
)

func (b BodyType) String() string {
	switch b {
	case BodyDepthClipVertex:
		return "depth clip vs"
	case BodyDepthClipFragment:
		return "depth clip fs"
	case BodyDepthClipDualParaboloidVertex:
		return "depth clip dual paraboloid vs"
	case BodyDepthClipDualParaboloidFragment:
		return "depth clip dual paraboloid fs"
	case BodyDepthClipAndSquaredVertex:
		return "depth clip and squared vs"
	case BodyDepthClipAndSquaredFragment:
		return "depth clip and squared fs"
	case BodyDepthClipAndSquaredDualParaboloidVertex:
		return "depth clip and squared dual paraboloid vs"
	case BodyDepthClipAndSquaredDualParaboloidFragment:
		return "depth clip and squared dual paraboloid fs"
	}
	return fmt.Sprintf("body type %d", int(b))
}

// Uniforms of the special material programs.
const (
	UniformModel       = "model"
	UniformVP          = "vp"
	UniformFarNearDiff = "far_near_plane_diff"
	UniformNearPlane   = "near_plane"
	UniformFlipZ       = "flip_z"
)

const depthClipVertex = `#version 430 core

layout(location = 0) in vec3 object_vertex;

uniform mat4 model;
uniform mat4 vp;

void main()
{
    gl_Position = vp * model * vec4(object_vertex, 1.0);
}
`

const depthClipFragment = `#version 430 core

void main()
{
}
`

const depthClipDualParaboloidVertex = `#version 430 core

layout(location = 0) in vec3 object_vertex;

uniform mat4  model;
uniform mat4  vp;
uniform float far_near_plane_diff;
uniform float flip_z;
uniform float near_plane;

out float depth;

void main()
{
    vec4 light_vertex = vp * model * vec4(object_vertex, 1.0);

    light_vertex.z *= flip_z;

    float light_vertex_length = length(light_vertex.xyz);
    vec3  light_vertex_norm   = light_vertex.xyz / light_vertex_length;

    depth              = (light_vertex_length - near_plane) / far_near_plane_diff;
    gl_ClipDistance[0] = -light_vertex_norm.z;
    gl_Position        = vec4(light_vertex_norm.xy / (1.0 - light_vertex_norm.z), depth * 2.0 - 1.0, 1.0);
}
`

const depthClipDualParaboloidFragment = `#version 430 core

in float depth;

void main()
{
    gl_FragDepth = depth;
}
`

const depthClipAndSquaredVertex = `#version 430 core

layout(location = 0) in vec3 object_vertex;

uniform mat4 model;
uniform mat4 vp;

void main()
{
    gl_Position = vp * model * vec4(object_vertex, 1.0);
}
`

const depthClipAndSquaredFragment = `#version 430 core

out vec2 result;

void main()
{
    result = vec2(gl_FragCoord.z, gl_FragCoord.z * gl_FragCoord.z);
}
`

const depthClipAndSquaredDualParaboloidVertex = depthClipDualParaboloidVertex

const depthClipAndSquaredDualParaboloidFragment = `#version 430 core

in float depth;

out vec2 result;

void main()
{
    gl_FragDepth = depth;
    result       = vec2(depth, depth * depth);
}
`

var bodies = [NumBodyTypes]string{
	BodyDepthClipVertex:                           depthClipVertex,
	BodyDepthClipFragment:                         depthClipFragment,
	BodyDepthClipDualParaboloidVertex:             depthClipDualParaboloidVertex,
	BodyDepthClipDualParaboloidFragment:           depthClipDualParaboloidFragment,
	BodyDepthClipAndSquaredVertex:                 depthClipAndSquaredVertex,
	BodyDepthClipAndSquaredFragment:               depthClipAndSquaredFragment,
	BodyDepthClipAndSquaredDualParaboloidVertex:   depthClipAndSquaredDualParaboloidVertex,
	BodyDepthClipAndSquaredDualParaboloidFragment: depthClipAndSquaredDualParaboloidFragment,
}

// SpecialMaterialShaderBody returns the literal source of a shadow map generation shader.
func SpecialMaterialShaderBody(body BodyType) string {
	if body < 0 || body >= NumBodyTypes {
		log.Panicf("unrecognized special material shader body: %v", body)
	}
	return bodies[body]
}
