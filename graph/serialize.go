package graph

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// FormatVersion is the only supported version of binary format
const FormatVersion byte = 0

var magic = [3]byte{'k', 'a', 'r'}

/*
WriteTo writes graph in binary format:

	3 bytes     magic 'k','a','r'
	1 byte      version
	4 bytes     vertices count
	per vertex:
	  4 bytes   vertex id
	  4 bytes   neighbors count
	  per neighbor:
	    4 bytes neighbor id
	    8 bytes weight (IEEE-754)

All integers are big-endian.
*/
func WriteTo(w io.Writer, g Graph) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return errors.Wrap(err, "Can't write magic bytes")
	}
	if err := bw.WriteByte(FormatVersion); err != nil {
		return errors.Wrap(err, "Can't write version")
	}
	vertices := g.GetVertices()
	if err := binary.Write(bw, binary.BigEndian, int32(len(vertices))); err != nil {
		return errors.Wrap(err, "Can't write vertices count")
	}
	for _, x := range vertices {
		neighbors, err := g.GetNeighbors(x)
		if err != nil {
			return errors.Wrap(err, "Can't get neighbors")
		}
		if err := binary.Write(bw, binary.BigEndian, int32(x)); err != nil {
			return errors.Wrap(err, "Can't write vertex")
		}
		if err := binary.Write(bw, binary.BigEndian, int32(len(neighbors))); err != nil {
			return errors.Wrap(err, "Can't write neighbors count")
		}
		for _, y := range neighbors {
			weight, _, err := g.GetEdge(x, y)
			if err != nil {
				return errors.Wrap(err, "Can't get edge")
			}
			if err := binary.Write(bw, binary.BigEndian, int32(y)); err != nil {
				return errors.Wrap(err, "Can't write neighbor")
			}
			if err := binary.Write(bw, binary.BigEndian, weight); err != nil {
				return errors.Wrap(err, "Can't write weight")
			}
		}
	}
	return errors.Wrap(bw.Flush(), "Can't flush graph")
}

// Serialize returns graph in binary format. See WriteTo for the layout
func Serialize(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTo(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readInt32(r io.Reader, what string) (int32, error) {
	var v int32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, errors.Wrapf(ErrFormat, "can't read %s: %s", what, err.Error())
	}
	return v, nil
}

// ReadFrom clears given graph and fills it with data in binary format. See WriteTo for the layout.
// On error graph is left empty
func ReadFrom(r io.Reader, g Graph) error {
	g.Clear()
	err := readGraph(bufio.NewReader(r), g)
	if err != nil {
		g.Clear()
		return err
	}
	return nil
}

func readGraph(br *bufio.Reader, g Graph) error {
	var header [4]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return errors.Wrapf(ErrFormat, "can't read header: %s", err.Error())
	}
	for i := range magic {
		if header[i] != magic[i] {
			return errors.Wrapf(ErrFormat, "'%c' expected at position %d, got 0x%02X", magic[i], i, header[i])
		}
	}
	if header[3] != FormatVersion {
		return errors.Wrapf(ErrVersionMismatch, "version %d (%d expected)", header[3], FormatVersion)
	}

	verticesCount, err := readInt32(br, "vertices count")
	if err != nil {
		return err
	}
	edges := []Edge{}
	for i := int32(0); i < verticesCount; i++ {
		x, err := readInt32(br, "vertex")
		if err != nil {
			return err
		}
		if err := g.AddVertex(VertexID(x)); err != nil {
			return errors.Wrap(err, "Can't add vertex")
		}
		neighborsCount, err := readInt32(br, "neighbors count")
		if err != nil {
			return err
		}
		for j := int32(0); j < neighborsCount; j++ {
			y, err := readInt32(br, "neighbor")
			if err != nil {
				return err
			}
			var weight float64
			if err := binary.Read(br, binary.BigEndian, &weight); err != nil {
				return errors.Wrapf(ErrFormat, "can't read weight: %s", err.Error())
			}
			edges = append(edges, Edge{From: VertexID(x), To: VertexID(y), Weight: weight})
		}
	}
	// Edges may point to vertices declared later in file
	for _, edge := range edges {
		if err := g.AddEdge(edge.From, edge.To, edge.Weight); err != nil {
			return errors.Wrap(err, "Can't add edge")
		}
	}
	return nil
}

// Deserialize clears given graph and fills it with data in binary format
func Deserialize(g Graph, data []byte) error {
	return ReadFrom(bytes.NewReader(data), g)
}
