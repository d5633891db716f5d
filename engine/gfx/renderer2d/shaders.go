package renderer2d

// Default quad shaders. Colors arrive premultiplied; texIndex selects one of
// the batch's texture units.
const DefaultVertexSource = `
#version 330 core
layout(location=0) in vec2 aPos;
layout(location=1) in vec4 aColor;
layout(location=2) in vec2 aUV;
layout(location=3) in float aTexIndex;

uniform mat4 uVP;

out vec4 vColor;
out vec2 vUV;
flat out int vTex;

void main() {
    vColor = aColor;
    vUV = aUV;
    vTex = int(aTexIndex + 0.5);
    gl_Position = uVP * vec4(aPos, 0.0, 1.0);
}
` + "\x00"

const DefaultFragmentSource = `
#version 330 core
in vec4 vColor;
in vec2 vUV;
flat in int vTex;

uniform sampler2D uTex[16];

out vec4 FragColor;

vec4 sampleTex(int i, vec2 uv) {
    switch (i) {
    case 0: return texture(uTex[0], uv);
    case 1: return texture(uTex[1], uv);
    case 2: return texture(uTex[2], uv);
    case 3: return texture(uTex[3], uv);
    case 4: return texture(uTex[4], uv);
    case 5: return texture(uTex[5], uv);
    case 6: return texture(uTex[6], uv);
    case 7: return texture(uTex[7], uv);
    case 8: return texture(uTex[8], uv);
    case 9: return texture(uTex[9], uv);
    case 10: return texture(uTex[10], uv);
    case 11: return texture(uTex[11], uv);
    case 12: return texture(uTex[12], uv);
    case 13: return texture(uTex[13], uv);
    case 14: return texture(uTex[14], uv);
    default: return texture(uTex[15], uv);
    }
}

void main() {
    FragColor = sampleTex(vTex, vUV) * vColor;
}
` + "\x00"
