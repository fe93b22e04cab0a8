package blockwalk

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/blockwalk/core"
	"github.com/gekko3d/blockwalk/volume"
)

func solidCube(n int, b volume.Block) *volume.Grid {
	g := volume.NewGrid(n, n, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				_ = g.Set(x, y, z, b)
			}
		}
	}
	return g
}

func TestCubeMesh(t *testing.T) {
	vertices, indices := cubeMesh()

	require.Len(t, vertices, 24)
	require.Len(t, indices, 36)

	for _, v := range vertices {
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, 0.5, mgl32.Abs(v.Position[axis]), 1e-6, "corners sit on the unit cube centred on the cell")
		}
	}

	// Every triangle winds counter-clockwise seen from outside: its geometric normal agrees with the face normal.
	for i := 0; i < len(indices); i += 3 {
		a := mgl32.Vec3(vertices[indices[i]].Position)
		b := mgl32.Vec3(vertices[indices[i+1]].Position)
		c := mgl32.Vec3(vertices[indices[i+2]].Position)
		n := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, n.Dot(vertices[indices[i]].Normal), float32(0), "triangle %d", i/3)
	}
}

func TestBuildBlockInstances_CullsHiddenBlocks(t *testing.T) {
	grid := solidCube(3, volume.Stone)
	bt, err := BuildBlockTextures(NewAssetServer(), nil, 2)
	require.NoError(t, err)

	instances := buildBlockInstances(grid, bt, nil)

	assert.Len(t, instances, 26, "the centre block is enclosed")
	for _, inst := range instances {
		assert.NotEqual(t, [3]float32{1, 1, 1}, inst.Offset)
	}
}

func TestBuildBlockInstances_LayersAndTints(t *testing.T) {
	grid := volume.NewGrid(3, 1, 1)
	_ = grid.Set(0, 0, 0, volume.Stone)
	_ = grid.Set(1, 0, 0, volume.Gold)
	_ = grid.Set(2, 0, 0, volume.Dirt)

	server := NewAssetServer()
	stone := server.CreateTexture(make([]byte, 2*2*4), 2, 2)
	bt, err := BuildBlockTextures(server, map[volume.Block]AssetId{volume.Stone: stone}, 2)
	require.NoError(t, err)

	instances := buildBlockInstances(grid, bt, map[volume.Block][4]uint8{volume.Gold: {255, 0, 0, 255}})
	require.Len(t, instances, 3)

	byX := map[float32]blockInstance{}
	for _, inst := range instances {
		byX[inst.Offset[0]] = inst
	}
	assert.Equal(t, uint32(1), byX[0].Layer)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, byX[0].Tint, "textured blocks are untinted")
	assert.Equal(t, uint32(0), byX[1].Layer)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, byX[1].Tint)
	assert.Equal(t, [4]float32{0.5, 0.5, 0.5, 1}, byX[2].Tint, "untinted untextured blocks are grey")
}

func TestDepthRemap(t *testing.T) {
	near := depthRemap.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := depthRemap.Mul4x1(mgl32.Vec4{0, 0, 1, 1})

	assert.InDelta(t, 0, near.Z()/near.W(), 1e-6)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-6)
}

func TestViewProjection_PointAheadIsVisible(t *testing.T) {
	cam := core.NewCamera(mgl32.Vec3{4, 3, 4}, mgl32.Vec3{0, 1, 0}, 45)
	target := cam.Position().Add(cam.Front().Mul(10))

	clip := viewProjection(cam, 4.0/3.0).Mul4x1(target.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())

	assert.InDelta(t, 0, ndc.X(), 1e-4)
	assert.InDelta(t, 0, ndc.Y(), 1e-4)
	assert.Greater(t, ndc.Z(), float32(0))
	assert.Less(t, ndc.Z(), float32(1))
}

func TestVertexLayouts(t *testing.T) {
	vertex := createVertexBufferLayout(cubeVertex{}, wgpu.VertexStepModeVertex)
	assert.Equal(t, uint64(32), vertex.ArrayStride)
	require.Len(t, vertex.Attributes, 3)
	assert.Equal(t, uint64(20), vertex.Attributes[2].Offset)

	instance := createVertexBufferLayout(blockInstance{}, wgpu.VertexStepModeInstance)
	assert.Equal(t, uint64(32), instance.ArrayStride)
	require.Len(t, instance.Attributes, 3)
	assert.Equal(t, uint32(4), instance.Attributes[1].ShaderLocation)
	assert.Equal(t, wgpu.VertexFormatUint32, instance.Attributes[1].Format)
	assert.Equal(t, uint64(16), instance.Attributes[2].Offset)
	assert.Equal(t, wgpu.VertexStepModeInstance, instance.StepMode)
}

func TestToBufferBytes_Globals(t *testing.T) {
	data := toBufferBytes(blockGlobals{ViewProj: mgl32.Ident4(), LightDir: [4]float32{0, -1, 0, 0}})

	assert.Len(t, data, 80)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, data[0:4], "matrix element 0 is 1.0")
}

func TestBlockRenderer_NotReadyWithoutSetup(t *testing.T) {
	r := &BlockRenderer{}

	assert.False(t, r.Ready())
	assert.Equal(t, uint32(0), r.InstanceCount())
	// Drawing before setup is a no-op.
	blockRenderSystem(r, core.NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 45), &Window{}, NewNopLogger())
}
