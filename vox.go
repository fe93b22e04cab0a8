package blockwalk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gekko3d/blockwalk/volume"
)

const (
	VOXMagicNumber = "VOX "
)

var ErrNotVox = errors.New("not a valid VOX file")

type Voxel struct {
	X, Y, Z, ColorIndex byte
}

type VoxModel struct {
	SizeX, SizeY, SizeZ uint32
	Voxels              []Voxel
}

type VoxPalette [256][4]byte // RGBA, index 0 unused

type VoxFile struct {
	Version int
	Models  []VoxModel
	Palette VoxPalette
}

func LoadVoxFile(filename string) (*VoxFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vf, err := DecodeVox(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return vf, nil
}

// DecodeVox reads a MagicaVoxel file. Only SIZE, XYZI and RGBA chunks are interpreted;
// every other chunk is skipped.
func DecodeVox(r io.Reader) (*VoxFile, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic[:]) != VOXMagicNumber {
		return nil, ErrNotVox
	}

	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}

	voxFile := &VoxFile{
		Version: int(version),
		Palette: defaultPalette(),
	}

	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read chunk id: %w", err)
		}

		var chunkSize, childrenSize int32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunkID[:], err)
		}
		if err := binary.Read(r, binary.LittleEndian, &childrenSize); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunkID[:], err)
		}
		if chunkSize < 0 {
			return nil, fmt.Errorf("chunk %s: negative size %d", chunkID[:], chunkSize)
		}

		// MAIN has no content of its own; its children follow inline.
		if string(chunkID[:]) == "MAIN" {
			if _, err := io.CopyN(io.Discard, r, int64(chunkSize)); err != nil {
				return nil, fmt.Errorf("chunk MAIN: %w", err)
			}
			continue
		}

		chunkData := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunkID[:], err)
		}

		switch string(chunkID[:]) {
		case "SIZE":
			if len(chunkData) < 12 {
				return nil, errors.New("SIZE chunk too small")
			}
			voxFile.Models = append(voxFile.Models, VoxModel{
				SizeX: binary.LittleEndian.Uint32(chunkData[0:4]),
				SizeY: binary.LittleEndian.Uint32(chunkData[4:8]),
				SizeZ: binary.LittleEndian.Uint32(chunkData[8:12]),
			})
		case "XYZI":
			if len(voxFile.Models) == 0 {
				return nil, errors.New("XYZI chunk before SIZE")
			}
			if len(chunkData) < 4 {
				return nil, errors.New("XYZI chunk too small")
			}
			model := &voxFile.Models[len(voxFile.Models)-1]
			numVoxels := int(binary.LittleEndian.Uint32(chunkData[:4]))
			if 4+numVoxels*4 > len(chunkData) {
				return nil, errors.New("XYZI chunk data overflow")
			}
			model.Voxels = make([]Voxel, numVoxels)
			for i := 0; i < numVoxels; i++ {
				offset := 4 + i*4
				model.Voxels[i] = Voxel{
					X:          chunkData[offset],
					Y:          chunkData[offset+1],
					Z:          chunkData[offset+2],
					ColorIndex: chunkData[offset+3],
				}
			}
		case "RGBA":
			// Entry i describes colour index i+1.
			for i := 0; i < 255 && i*4+3 < len(chunkData); i++ {
				offset := i * 4
				copy(voxFile.Palette[i+1][:], chunkData[offset:offset+4])
			}
		}
	}

	if len(voxFile.Models) == 0 {
		return nil, errors.New("no models in VOX file")
	}
	return voxFile, nil
}

func defaultPalette() VoxPalette {
	var palette VoxPalette
	for i := range palette {
		palette[i] = [4]uint8{255, 255, 255, 255} // white as fallback
	}
	return palette
}

// Grid converts the model into a block grid. MagicaVoxel is z-up, so the model's z becomes
// the grid's y. Each voxel's colour index becomes its block code.
func (m VoxModel) Grid() *volume.Grid {
	g := volume.NewGrid(int(max(m.SizeX, 1)), int(max(m.SizeZ, 1)), int(max(m.SizeY, 1)))
	for _, v := range m.Voxels {
		if v.ColorIndex == 0 {
			continue
		}
		_ = g.Set(int(v.X), int(v.Z), int(v.Y), volume.Block(v.ColorIndex))
	}
	return g
}
