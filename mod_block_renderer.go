package blockwalk

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/blockwalk/core"
	"github.com/gekko3d/blockwalk/shaders"
	"github.com/gekko3d/blockwalk/volume"
)

type cubeVertex struct {
	Position [3]float32 `blockwalk:"layout" location:"0" format:"float3"`
	UV       [2]float32 `blockwalk:"layout" location:"1" format:"float2"`
	Normal   [3]float32 `blockwalk:"layout" location:"2" format:"float3"`
}

type blockInstance struct {
	Offset [3]float32 `blockwalk:"layout" location:"3" format:"float3"`
	Layer  uint32     `blockwalk:"layout" location:"4" format:"uint"`
	Tint   [4]float32 `blockwalk:"layout" location:"5" format:"float4"`
}

type blockGlobals struct {
	ViewProj mgl32.Mat4
	LightDir [4]float32
}

// depthRemap maps OpenGL clip depth [-1, 1] to the [0, 1] range wgpu expects.
var depthRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

var lightDirection = mgl32.Vec3{-0.4, -1, -0.3}.Normalize()

type cubeFace struct {
	normal, u, v mgl32.Vec3
}

// Each face's u x v equals its normal, so corners listed (-u,-v) (+u,-v) (+u,+v) (-u,+v)
// wind counter-clockwise seen from outside.
var cubeFaces = []cubeFace{
	{normal: mgl32.Vec3{1, 0, 0}, u: mgl32.Vec3{0, 0, -1}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{-1, 0, 0}, u: mgl32.Vec3{0, 0, 1}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}},
	{normal: mgl32.Vec3{0, -1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, 1}},
	{normal: mgl32.Vec3{0, 0, 1}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 0, -1}, u: mgl32.Vec3{-1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
}

// cubeMesh builds a unit cube centred on the origin, so a block at cell (x, y, z) spans
// [x-0.5, x+0.5] on each axis and matches the camera's round-to-nearest cell lookup.
func cubeMesh() ([]cubeVertex, []uint16) {
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	vertices := make([]cubeVertex, 0, 24)
	indices := make([]uint16, 0, 36)
	for _, f := range cubeFaces {
		base := uint16(len(vertices))
		for i, c := range corners {
			p := f.normal.Mul(0.5).Add(f.u.Mul(0.5 * c[0])).Add(f.v.Mul(0.5 * c[1]))
			vertices = append(vertices, cubeVertex{Position: p, UV: uvs[i], Normal: f.normal})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// buildBlockInstances emits one instance per block with at least one exposed face.
// A textured block draws untinted; others take their world tint, or grey.
func buildBlockInstances(grid *volume.Grid, textures *BlockTextures, tints map[volume.Block][4]uint8) []blockInstance {
	var instances []blockInstance
	grid.Each(func(x, y, z int, b volume.Block) bool {
		if !exposed(grid, x, y, z) {
			return true
		}
		inst := blockInstance{
			Offset: [3]float32{float32(x), float32(y), float32(z)},
			Tint:   [4]float32{1, 1, 1, 1},
		}
		if layer, ok := textures.Layer(b); ok {
			inst.Layer = layer
		} else if tint, ok := tints[b]; ok {
			inst.Tint = [4]float32{float32(tint[0]) / 255, float32(tint[1]) / 255, float32(tint[2]) / 255, float32(tint[3]) / 255}
		} else {
			inst.Tint = [4]float32{0.5, 0.5, 0.5, 1}
		}
		instances = append(instances, inst)
		return true
	})
	return instances
}

func exposed(grid *volume.Grid, x, y, z int) bool {
	for _, f := range cubeFaces {
		nx, ny, nz := x+int(f.normal[0]), y+int(f.normal[1]), z+int(f.normal[2])
		if !grid.InBounds(nx, ny, nz) || grid.IsEmpty(nx, ny, nz) {
			return true
		}
	}
	return false
}

func viewProjection(cam *core.Camera, aspect float32) mgl32.Mat4 {
	return depthRemap.Mul4(cam.Projection(aspect)).Mul4(cam.ViewMatrix())
}

// BlockRenderer draws the world as instanced textured cubes with depth testing.
type BlockRenderer struct {
	ClearColor wgpu.Color

	gpu         *GpuState
	pipeline    *wgpu.RenderPipeline
	vertexBuf   *wgpu.Buffer
	indexBuf    *wgpu.Buffer
	instanceBuf *wgpu.Buffer
	uniformBuf  *wgpu.Buffer
	texture     *wgpu.Texture
	textureView *wgpu.TextureView
	sampler     *wgpu.Sampler
	bindGroup   *wgpu.BindGroup

	indexCount    uint32
	instanceCount uint32
}

func (r *BlockRenderer) Ready() bool {
	return r.pipeline != nil
}

func (r *BlockRenderer) InstanceCount() uint32 {
	return r.instanceCount
}

type BlockRendererModule struct{}

func (mod BlockRendererModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&BlockRenderer{
		ClearColor: wgpu.Color{R: 0.53, G: 0.72, B: 0.9, A: 1},
	})

	app.UseSystem(
		System(rendererSetupSystem).
			InStage(Render).
			InState(OnEnter(Initializing)),
	)
	app.UseSystem(
		System(blockRenderSystem).
			InStage(Render).
			InState(OnExecute(Running)),
	)
	app.UseSystem(
		System(rendererReleaseSystem).
			InStage(Render).
			InState(OnEnter(Unloading)),
	)
}

func rendererSetupSystem(r *BlockRenderer, win *Window, world *World, bt *BlockTextures, lc *Lifecycle, log Logger) {
	if lc.Failed() {
		return
	}
	if err := r.setup(win, world, bt); err != nil {
		r.release()
		lc.Fail(fmt.Errorf("renderer setup: %w", err))
		return
	}
	log.Infof("renderer ready: %d block instances", r.instanceCount)
}

func (r *BlockRenderer) setup(win *Window, world *World, bt *BlockTextures) error {
	gs, err := createGpuState(win)
	if err != nil {
		return err
	}
	r.gpu = gs

	r.pipeline, err = createRenderPipeline("blocks", shaders.BlocksWGSL, []wgpu.VertexBufferLayout{
		createVertexBufferLayout(cubeVertex{}, wgpu.VertexStepModeVertex),
		createVertexBufferLayout(blockInstance{}, wgpu.VertexStepModeInstance),
	}, gs)
	if err != nil {
		return err
	}

	vertices, indices := cubeMesh()
	if r.vertexBuf, err = createBuffer("Cube Vertices", wgpu.ToBytes(vertices), gs, wgpu.BufferUsageVertex); err != nil {
		return err
	}
	if r.indexBuf, err = createBuffer("Cube Indices", wgpu.ToBytes(indices), gs, wgpu.BufferUsageIndex); err != nil {
		return err
	}
	r.indexCount = uint32(len(indices))

	instances := buildBlockInstances(world.Grid, bt, world.Tints)
	r.instanceCount = uint32(len(instances))
	if len(instances) > 0 {
		if r.instanceBuf, err = createBuffer("Block Instances", wgpu.ToBytes(instances), gs, wgpu.BufferUsageVertex); err != nil {
			return err
		}
	}

	globals := blockGlobals{ViewProj: mgl32.Ident4()}
	if r.uniformBuf, err = createBuffer("Globals", toBufferBytes(globals), gs, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}

	if r.texture, r.textureView, err = createTextureArray(bt, gs); err != nil {
		return err
	}
	if r.sampler, err = createSampler(gs, "nearest", "wrap"); err != nil {
		return fmt.Errorf("sampler: %w", err)
	}

	layout := r.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	r.bindGroup, err = gs.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
			{Binding: 1, TextureView: r.textureView, Size: wgpu.WholeSize},
			{Binding: 2, Sampler: r.sampler, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("bind group: %w", err)
	}
	return nil
}

func blockRenderSystem(r *BlockRenderer, cam *core.Camera, win *Window, log Logger) {
	if !r.Ready() {
		return
	}
	if err := r.draw(cam, win); err != nil {
		log.Warnf("frame skipped: %v", err)
	}
}

func (r *BlockRenderer) draw(cam *core.Camera, win *Window) error {
	gs := r.gpu
	width, height := win.FramebufferSize()
	if width <= 0 || height <= 0 {
		return nil
	}
	if cw, ch := gs.size(); cw != width || ch != height {
		if err := gs.resize(width, height); err != nil {
			return err
		}
	}

	globals := blockGlobals{
		ViewProj: viewProjection(cam, win.Aspect()),
		LightDir: [4]float32{lightDirection[0], lightDirection[1], lightDirection[2], 0},
	}
	if err := gs.queue.WriteBuffer(r.uniformBuf, 0, toBufferBytes(globals)); err != nil {
		return fmt.Errorf("write globals: %w", err)
	}

	nextTexture, err := gs.surface.GetCurrentTexture()
	if err != nil {
		// Typically an outdated swapchain; reconfigure and try again next frame.
		gs.surface.Configure(gs.adapter, gs.device, gs.surfaceConfig)
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("surface view: %w", err)
	}
	defer view.Release()

	encoder, err := gs.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: r.ClearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            gs.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	if r.instanceCount > 0 {
		pass.SetPipeline(r.pipeline)
		pass.SetBindGroup(0, r.bindGroup, nil)
		pass.SetVertexBuffer(0, r.vertexBuf, 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, r.instanceBuf, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(r.indexBuf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
		pass.DrawIndexed(r.indexCount, r.instanceCount, 0, 0, 0)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("render pass: %w", err)
	}

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	defer cmdBuffer.Release()

	gs.queue.Submit(cmdBuffer)
	gs.surface.Present()
	return nil
}

func rendererReleaseSystem(r *BlockRenderer, log Logger) {
	if r.gpu == nil {
		return
	}
	r.release()
	log.Debugf("renderer released")
}

func (r *BlockRenderer) release() {
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}
	if r.textureView != nil {
		r.textureView.Release()
		r.textureView = nil
	}
	if r.texture != nil {
		r.texture.Release()
		r.texture = nil
	}
	for _, buf := range []**wgpu.Buffer{&r.uniformBuf, &r.instanceBuf, &r.indexBuf, &r.vertexBuf} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	if r.gpu != nil {
		r.gpu.release()
		r.gpu = nil
	}
}
