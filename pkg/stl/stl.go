// Package stl encodes and decodes triangle meshes in the STL format,
// which is the raw byte format the mesh compiler returns. Decoding
// welds coincident vertices and computes smooth, area-weighted vertex
// normals, so cached meshes come back render-ready.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kivell/bricklab/pkg/kernel"
)

const (
	headerLen   = 80
	triangleLen = 50 // 12 floats + uint16 attribute
)

// Encode renders a mesh as binary STL. The mesh is treated as a
// triangle soup; per-vertex normals collapse to the face normal of the
// triangle's first vertex, which is what the kernel produces anyway.
func Encode(m *kernel.Mesh) []byte {
	nTri := m.TriangleCount()
	buf := bytes.NewBuffer(make([]byte, 0, headerLen+4+nTri*triangleLen))

	header := make([]byte, headerLen)
	copy(header, "bricklab solid mesh")
	buf.Write(header)
	binary.Write(buf, binary.LittleEndian, uint32(nTri))

	for t := 0; t < nTri; t++ {
		i0 := m.Indices[t*3]
		// Face normal: the kernel stores one normal per corner, all
		// equal within a face.
		binary.Write(buf, binary.LittleEndian, m.Normals[i0*3:i0*3+3])
		for c := 0; c < 3; c++ {
			vi := m.Indices[t*3+c]
			binary.Write(buf, binary.LittleEndian, m.Vertices[vi*3:vi*3+3])
		}
		binary.Write(buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

// Decode parses STL bytes (binary or ASCII) into a mesh with welded
// vertices and smooth vertex normals.
func Decode(data []byte) (*kernel.Mesh, error) {
	tris, err := readTriangles(data)
	if err != nil {
		return nil, err
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("stl: no triangles")
	}
	return weld(tris), nil
}

// tri is one raw decoded triangle, 3 corners of 3 coordinates.
type tri [9]float32

func readTriangles(data []byte) ([]tri, error) {
	if isBinary(data) {
		return readBinary(data)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return readASCII(data)
	}
	return nil, fmt.Errorf("stl: unrecognized format")
}

// isBinary checks that the byte length matches the binary layout for
// the declared triangle count. ASCII files that happen to satisfy this
// are vanishingly unlikely.
func isBinary(data []byte) bool {
	if len(data) < headerLen+4 {
		return false
	}
	n := binary.LittleEndian.Uint32(data[headerLen:])
	return len(data) == headerLen+4+int(n)*triangleLen
}

func readBinary(data []byte) ([]tri, error) {
	n := binary.LittleEndian.Uint32(data[headerLen:])
	tris := make([]tri, 0, n)
	off := headerLen + 4
	for t := uint32(0); t < n; t++ {
		rec := data[off : off+triangleLen]
		var tr tri
		for c := 0; c < 9; c++ {
			// Skip the 12-byte normal; it is recomputed on weld.
			bits := binary.LittleEndian.Uint32(rec[12+c*4:])
			tr[c] = math.Float32frombits(bits)
		}
		tris = append(tris, tr)
		off += triangleLen
	}
	return tris, nil
}

func readASCII(data []byte) ([]tri, error) {
	var tris []tri
	var cur tri
	corner := 0

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "vertex" {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("stl: line %d: malformed vertex", line)
		}
		for c := 0; c < 3; c++ {
			v, err := strconv.ParseFloat(fields[c+1], 32)
			if err != nil {
				return nil, fmt.Errorf("stl: line %d: bad coordinate %q", line, fields[c+1])
			}
			cur[corner*3+c] = float32(v)
		}
		corner++
		if corner == 3 {
			tris = append(tris, cur)
			corner = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	if corner != 0 {
		return nil, fmt.Errorf("stl: truncated facet")
	}
	return tris, nil
}

// weld merges coincident corners into shared vertices and accumulates
// area-weighted face normals per vertex, normalized at the end.
func weld(tris []tri) *kernel.Mesh {
	type key [3]float32
	index := make(map[key]uint32)

	var vertices []float32
	var indices []uint32
	acc := make([]float64, 0) // 3 per vertex, parallel to vertices

	lookup := func(x, y, z float32) uint32 {
		k := key{x, y, z}
		if i, ok := index[k]; ok {
			return i
		}
		i := uint32(len(vertices) / 3)
		index[k] = i
		vertices = append(vertices, x, y, z)
		acc = append(acc, 0, 0, 0)
		return i
	}

	for _, tr := range tris {
		var vi [3]uint32
		for c := 0; c < 3; c++ {
			vi[c] = lookup(tr[c*3], tr[c*3+1], tr[c*3+2])
		}
		indices = append(indices, vi[0], vi[1], vi[2])

		// Cross product of two edges: direction is the face normal,
		// magnitude twice the face area, so flat faces dominate.
		ax := float64(tr[3] - tr[0])
		ay := float64(tr[4] - tr[1])
		az := float64(tr[5] - tr[2])
		bx := float64(tr[6] - tr[0])
		by := float64(tr[7] - tr[1])
		bz := float64(tr[8] - tr[2])
		nx := ay*bz - az*by
		ny := az*bx - ax*bz
		nz := ax*by - ay*bx
		for c := 0; c < 3; c++ {
			acc[vi[c]*3] += nx
			acc[vi[c]*3+1] += ny
			acc[vi[c]*3+2] += nz
		}
	}

	normals := make([]float32, len(vertices))
	for v := 0; v < len(vertices)/3; v++ {
		nx, ny, nz := acc[v*3], acc[v*3+1], acc[v*3+2]
		l := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if l < 1e-12 {
			normals[v*3+2] = 1
			continue
		}
		normals[v*3] = float32(nx / l)
		normals[v*3+1] = float32(ny / l)
		normals[v*3+2] = float32(nz / l)
	}

	return &kernel.Mesh{Vertices: vertices, Normals: normals, Indices: indices}
}
