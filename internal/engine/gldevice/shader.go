package gldevice

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// compileProgram compiles and links a vertex/fragment pair.
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vert)

	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(frag)

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}
	return shader, nil
}

func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

const meshVertexShader = `
#version 410 core
layout (location = 0) in vec3 aPos;
uniform mat4 uMVP;
void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
}
`

const meshFragmentShader = `
#version 410 core
uniform vec4 uColor;
out vec4 FragColor;
void main() {
	FragColor = uColor;
}
`

// The blit draws one oversized triangle covering the viewport.
const blitVertexShader = `
#version 410 core
out vec2 vUV;
void main() {
	vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
	vUV = pos;
	gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`

const blitFragmentShader = `
#version 410 core
in vec2 vUV; // bottom-left origin; screen-space images are top-left

uniform sampler2D uColor;
uniform sampler2D uDepth;
uniform sampler2D uSSAO;
uniform sampler2D uEdges;

uniform float uAlpha;
uniform bool uPinDepth;
uniform bool uHasSSAO;
uniform bool uHasEdges;
uniform vec4 uEdgeColor;
uniform bool uOutline;
uniform vec4 uOutlineColor;

out vec4 FragColor;

bool covered(ivec2 p) {
	ivec2 size = textureSize(uColor, 0);
	if (p.x < 0 || p.y < 0 || p.x >= size.x || p.y >= size.y) {
		return true;
	}
	return texelFetch(uColor, p, 0).a > 0.0;
}

void main() {
	ivec2 p = ivec2(gl_FragCoord.xy);
	vec4 src = texelFetch(uColor, p, 0);
	if (src.a <= 0.0) {
		discard;
	}

	vec3 rgb = src.rgb;
	float a = src.a * uAlpha;
	if (uHasSSAO) {
		rgb *= texture(uSSAO, vec2(vUV.x, 1.0 - vUV.y)).r;
	}
	if (uHasEdges) {
		rgb = mix(rgb, uEdgeColor.rgb, texture(uEdges, vec2(vUV.x, 1.0 - vUV.y)).r);
	}
	if (uOutline && !(covered(p + ivec2(1, 0)) && covered(p - ivec2(1, 0)) &&
	                  covered(p + ivec2(0, 1)) && covered(p - ivec2(0, 1)))) {
		rgb = uOutlineColor.rgb;
		a = uOutlineColor.a;
	}

	FragColor = vec4(rgb, a);
	gl_FragDepth = uPinDepth ? 0.0 : texelFetch(uDepth, p, 0).r;
}
`
