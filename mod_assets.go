package blockwalk

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/gekko3d/blockwalk/volume"
)

type AssetId string

type TextureAsset struct {
	texels []uint8 // RGBA8, row-major
	width  uint32
	height uint32
	source string
}

func (t TextureAsset) Size() (uint32, uint32) {
	return t.width, t.height
}

// Source is the file the texture was decoded from, empty for generated textures.
func (t TextureAsset) Source() string {
	return t.source
}

func (t TextureAsset) rgba() *image.RGBA {
	return &image.RGBA{
		Pix:    t.texels,
		Stride: int(t.width) * 4,
		Rect:   image.Rect(0, 0, int(t.width), int(t.height)),
	}
}

type AssetServer struct {
	textures map[AssetId]TextureAsset
}

func NewAssetServer() *AssetServer {
	return &AssetServer{textures: make(map[AssetId]TextureAsset)}
}

func (server *AssetServer) CreateTexture(texels []uint8, texWidth uint32, texHeight uint32) AssetId {
	id := makeAssetId()

	server.textures[id] = TextureAsset{
		texels: texels,
		width:  texWidth,
		height: texHeight,
	}

	return id
}

func (server *AssetServer) LoadTexture(filename string) (AssetId, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	id, err := server.DecodeTexture(file, filename)
	if err != nil {
		return "", fmt.Errorf("load texture %s: %w", filename, err)
	}
	return id, nil
}

// DecodeTexture decodes a PNG or JPEG image into an RGBA texture.
func (server *AssetServer) DecodeTexture(r io.Reader, source string) (AssetId, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	id := makeAssetId()
	server.textures[id] = TextureAsset{
		texels: rgba.Pix,
		width:  uint32(bounds.Dx()),
		height: uint32(bounds.Dy()),
		source: source,
	}
	return id, nil
}

func (server *AssetServer) Texture(id AssetId) (TextureAsset, bool) {
	tx, ok := server.textures[id]
	return tx, ok
}

// Resampled returns the texture scaled to size x size with nearest-neighbour sampling,
// which keeps block pixel art crisp.
func (server *AssetServer) Resampled(id AssetId, size int) ([]byte, error) {
	tx, ok := server.textures[id]
	if !ok {
		return nil, fmt.Errorf("unknown texture %s", id)
	}
	if int(tx.width) == size && int(tx.height) == size {
		return tx.texels, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), tx.rgba(), tx.rgba().Bounds(), draw.Src, nil)
	return dst.Pix, nil
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// DefaultLayerSize is the edge length every block texture is resampled to.
const DefaultLayerSize = 32

// BlockTextures is a texture array for the block renderer. Layer 0 is plain white and
// is used by every block without a texture of its own.
type BlockTextures struct {
	LayerSize int
	Layers    int
	Pixels    []byte
	layerOf   map[volume.Block]uint32
}

func (bt *BlockTextures) Layer(b volume.Block) (uint32, bool) {
	layer, ok := bt.layerOf[b]
	return layer, ok
}

// BuildBlockTextures packs the given textures into array layers, ordered by block code.
func BuildBlockTextures(server *AssetServer, textures map[volume.Block]AssetId, layerSize int) (*BlockTextures, error) {
	layerBytes := layerSize * layerSize * 4
	bt := &BlockTextures{
		LayerSize: layerSize,
		Layers:    1,
		Pixels:    make([]byte, layerBytes, layerBytes*(len(textures)+1)),
		layerOf:   make(map[volume.Block]uint32),
	}
	for i := range bt.Pixels {
		bt.Pixels[i] = 0xFF
	}

	blocks := make([]volume.Block, 0, len(textures))
	for b := range textures {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	for _, b := range blocks {
		pix, err := server.Resampled(textures[b], layerSize)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", b, err)
		}
		bt.layerOf[b] = uint32(bt.Layers)
		bt.Pixels = append(bt.Pixels, pix...)
		bt.Layers++
	}
	return bt, nil
}

type AssetServerModule struct {
	// Textures maps block codes to image paths.
	Textures  map[int]string
	LayerSize int
}

func (mod AssetServerModule) Install(app *App, cmd *Commands) {
	layerSize := mod.LayerSize
	if layerSize <= 0 {
		layerSize = DefaultLayerSize
	}
	cmd.AddResources(NewAssetServer(), &BlockTextures{LayerSize: layerSize})

	paths := mod.Textures
	app.UseSystem(
		System(func(server *AssetServer, bt *BlockTextures, lc *Lifecycle, log Logger) {
			textureLoadSystem(paths, server, bt, lc, log)
		}).
			InStage(PreRender).
			InState(OnEnter(Initializing)),
	)
}

// textureLoadSystem loads configured block textures. A texture that fails to load is logged
// and its block falls back to the plain layer with its world tint.
func textureLoadSystem(paths map[int]string, server *AssetServer, bt *BlockTextures, lc *Lifecycle, log Logger) {
	if lc.Failed() {
		return
	}
	ids := make(map[volume.Block]AssetId, len(paths))
	for code, path := range paths {
		id, err := server.LoadTexture(path)
		if err != nil {
			log.Warnf("block %d texture: %v", code, err)
			continue
		}
		ids[volume.Block(code)] = id
	}

	built, err := BuildBlockTextures(server, ids, bt.LayerSize)
	if err != nil {
		lc.Fail(err)
		return
	}
	*bt = *built
	log.Infof("block textures ready: %d layers of %dpx", bt.Layers, bt.LayerSize)
}
