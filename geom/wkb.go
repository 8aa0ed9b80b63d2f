package geom

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	wkbSridFlag         = 0x20000000
	wkbPointType        = 1
	wkbLineStringType   = 2
	wkbPolygonType      = 3
	wkbMultiPolygonType = 6
)

func writeHeader(buf *bytes.Buffer, wkbType uint32) {
	binary.Write(buf, binary.LittleEndian, uint8(1)) // little endian
	binary.Write(buf, binary.LittleEndian, wkbType)
}

func writePoints(buf *bytes.Buffer, points []Point) {
	binary.Write(buf, binary.LittleEndian, uint32(len(points)))
	for _, p := range points {
		binary.Write(buf, binary.LittleEndian, p.Long)
		binary.Write(buf, binary.LittleEndian, p.Lat)
	}
}

func (p Point) WKB() []byte {
	buf := &bytes.Buffer{}
	writeHeader(buf, wkbPointType)
	binary.Write(buf, binary.LittleEndian, p.Long)
	binary.Write(buf, binary.LittleEndian, p.Lat)
	return buf.Bytes()
}

func (ls LineString) WKB() []byte {
	buf := &bytes.Buffer{}
	writeHeader(buf, wkbLineStringType)
	writePoints(buf, ls)
	return buf.Bytes()
}

func (mp MultiPolygon) WKB() []byte {
	buf := &bytes.Buffer{}
	writeHeader(buf, wkbMultiPolygonType)
	binary.Write(buf, binary.LittleEndian, uint32(len(mp)))
	for _, poly := range mp {
		writeHeader(buf, wkbPolygonType)
		binary.Write(buf, binary.LittleEndian, uint32(len(poly)))
		for _, ring := range poly {
			writePoints(buf, ring)
		}
	}
	return buf.Bytes()
}

// EWKBHex converts the WKB into hex encoded EWKB with the given SRID, as
// accepted by PostGIS for geometry input (e.g. with COPY).
func EWKBHex(wkb []byte, srid int) ([]byte, error) {
	if len(wkb) < 5 {
		return nil, errors.New("invalid wkb: too short")
	}
	var order binary.ByteOrder
	switch wkb[0] {
	case 0:
		order = binary.BigEndian
	case 1:
		order = binary.LittleEndian
	default:
		return nil, errors.Errorf("invalid wkb: unknown byte order %d", wkb[0])
	}
	wkbType := order.Uint32(wkb[1:5])

	buf := &bytes.Buffer{}
	buf.WriteByte(wkb[0])
	if srid != 0 && wkbType&wkbSridFlag == 0 {
		binary.Write(buf, order, wkbType|wkbSridFlag)
		binary.Write(buf, order, uint32(srid))
	} else {
		binary.Write(buf, order, wkbType)
	}
	buf.Write(wkb[5:])

	src := buf.Bytes()
	dst := make([]byte, hex.EncodedLen(len(src)))
	hex.Encode(dst, src)
	return dst, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func writeCoords(b *strings.Builder, points []Point) {
	b.WriteByte('(')
	for i, p := range points {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatCoord(p.Long))
		b.WriteByte(' ')
		b.WriteString(formatCoord(p.Lat))
	}
	b.WriteByte(')')
}

func (p Point) WKT() string {
	return "POINT(" + formatCoord(p.Long) + " " + formatCoord(p.Lat) + ")"
}

func (ls LineString) WKT() string {
	b := &strings.Builder{}
	b.WriteString("LINESTRING")
	writeCoords(b, ls)
	return b.String()
}

func (mp MultiPolygon) WKT() string {
	b := &strings.Builder{}
	b.WriteString("MULTIPOLYGON(")
	for i, poly := range mp {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, ring := range poly {
			if j > 0 {
				b.WriteString(", ")
			}
			writeCoords(b, ring)
		}
		b.WriteByte(')')
	}
	b.WriteByte(')')
	return b.String()
}
