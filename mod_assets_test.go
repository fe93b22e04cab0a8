package blockwalk

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/blockwalk/volume"
)

func encodePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAssetServer_DecodeTexture(t *testing.T) {
	server := NewAssetServer()

	id, err := server.DecodeTexture(bytes.NewReader(encodePNG(t, 4, 2, color.NRGBA{R: 200, A: 255})), "red.png")
	require.NoError(t, err)

	tx, ok := server.Texture(id)
	require.True(t, ok)
	w, h := tx.Size()
	assert.Equal(t, uint32(4), w)
	assert.Equal(t, uint32(2), h)
	assert.Equal(t, "red.png", tx.Source())
	assert.Equal(t, []byte{200, 0, 0, 255}, tx.texels[:4])

	_, err = server.DecodeTexture(bytes.NewReader([]byte("not an image")), "junk")
	assert.Error(t, err)
}

func TestAssetServer_LoadTexture(t *testing.T) {
	server := NewAssetServer()
	path := filepath.Join(t.TempDir(), "stone.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 2, 2, color.NRGBA{R: 9, G: 9, B: 9, A: 255}), 0o644))

	id, err := server.LoadTexture(path)
	require.NoError(t, err)
	tx, ok := server.Texture(id)
	require.True(t, ok)
	assert.Equal(t, path, tx.Source())

	_, err = server.LoadTexture(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAssetServer_Resampled(t *testing.T) {
	server := NewAssetServer()
	// 2x1: left pixel red, right pixel blue.
	id := server.CreateTexture([]uint8{255, 0, 0, 255, 0, 0, 255, 255}, 2, 1)

	pix, err := server.Resampled(id, 4)
	require.NoError(t, err)
	require.Len(t, pix, 4*4*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, pix[0:4], "top-left stays red")
	assert.Equal(t, []byte{0, 0, 255, 255}, pix[3*4:4*4], "top-right stays blue")

	_, err = server.Resampled(AssetId("unknown"), 4)
	assert.Error(t, err)
}

func TestBuildBlockTextures(t *testing.T) {
	server := NewAssetServer()
	gold := server.CreateTexture(bytes.Repeat([]byte{250, 200, 0, 255}, 4), 2, 2)
	stone := server.CreateTexture(bytes.Repeat([]byte{90, 90, 90, 255}, 4), 2, 2)

	bt, err := BuildBlockTextures(server, map[volume.Block]AssetId{volume.Gold: gold, volume.Stone: stone}, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, bt.Layers)
	require.Len(t, bt.Pixels, 3*2*2*4)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), bt.Pixels[:16], "layer 0 is white")

	layer, ok := bt.Layer(volume.Stone)
	require.True(t, ok)
	assert.Equal(t, uint32(1), layer, "layers follow block code order")
	assert.Equal(t, []byte{90, 90, 90, 255}, bt.Pixels[16:20])

	layer, ok = bt.Layer(volume.Gold)
	require.True(t, ok)
	assert.Equal(t, uint32(2), layer)

	_, ok = bt.Layer(volume.Dirt)
	assert.False(t, ok)
}

func TestAssetServerModule_SkipsBrokenTextures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "grass.png")
	require.NoError(t, os.WriteFile(good, encodePNG(t, 8, 8, color.NRGBA{G: 160, A: 255}), 0o644))

	app := newLifecycleApp(AssetServerModule{
		Textures:  map[int]string{int(volume.Grass): good, int(volume.Dirt): filepath.Join(dir, "missing.png")},
		LayerSize: 4,
	})
	app.UseSystem(System(func(win *Window) { win.SetShouldClose(true) }).InState(OnExecute(Running)))
	app.Run()

	assert.False(t, Resource[Lifecycle](app).Failed())
	bt := Resource[BlockTextures](app)
	require.NotNil(t, bt)
	assert.Equal(t, 2, bt.Layers)
	_, ok := bt.Layer(volume.Grass)
	assert.True(t, ok)
	_, ok = bt.Layer(volume.Dirt)
	assert.False(t, ok)
}
