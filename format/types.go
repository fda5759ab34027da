// Package format defines the on-wire tags of the ndbin snapshot blob.
package format

type (
	SectionKind     uint8
	CompressionType uint8
)

const (
	SectionData       SectionKind = 0x1 // SectionData is the buffer's data column.
	SectionCoord      SectionKind = 0x2 // SectionCoord is a per-event coordinate column.
	SectionMask       SectionKind = 0x3 // SectionMask is a per-event mask column.
	SectionOuterCoord SectionKind = 0x4 // SectionOuterCoord is an edge/group coordinate of an outer dimension.
	SectionOuterMask  SectionKind = 0x5 // SectionOuterMask is a mask over the outer dimensions.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (s SectionKind) String() string {
	switch s {
	case SectionData:
		return "Data"
	case SectionCoord:
		return "Coord"
	case SectionMask:
		return "Mask"
	case SectionOuterCoord:
		return "OuterCoord"
	case SectionOuterMask:
		return "OuterMask"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
