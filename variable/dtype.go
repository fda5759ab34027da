package variable

// DType identifies the element type of a Variable. The set is closed:
// operations dispatch over these tags with type switches, there is no
// runtime type registration.
type DType uint8

const (
	// TypeFloat64 is IEEE-754 double precision.
	TypeFloat64 DType = iota + 1
	// TypeFloat32 is IEEE-754 single precision.
	TypeFloat32
	// TypeInt64 is a 64-bit signed integer.
	TypeInt64
	// TypeInt32 is a 32-bit signed integer.
	TypeInt32
	// TypeBool is a boolean, used by masks.
	TypeBool
	// TypeString is a string, used by discrete group keys.
	TypeString
	// TypeIndex is a signed index wide enough to address any buffer;
	// the sentinel -1 means "no bin".
	TypeIndex
	// TypeIndexPair is a (begin, end) offset pair into a flat buffer,
	// used by the index table of bucketed variables.
	TypeIndexPair
)

// IndexPair is a half-open [Begin, End) offset range into a flat buffer.
type IndexPair struct {
	Begin int
	End   int
}

// Len returns the number of elements covered by the range.
func (p IndexPair) Len() int { return p.End - p.Begin }

// String returns the dtype name.
func (t DType) String() string {
	switch t {
	case TypeFloat64:
		return "float64"
	case TypeFloat32:
		return "float32"
	case TypeInt64:
		return "int64"
	case TypeInt32:
		return "int32"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeIndex:
		return "index"
	case TypeIndexPair:
		return "index_pair"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the dtype is a floating-point type.
func (t DType) IsFloat() bool { return t == TypeFloat64 || t == TypeFloat32 }

// IsInt reports whether the dtype is an integer type (index included).
func (t DType) IsInt() bool { return t == TypeInt64 || t == TypeInt32 || t == TypeIndex }

func zeroStorage(t DType, n int) any {
	switch t {
	case TypeFloat64:
		return make([]float64, n)
	case TypeFloat32:
		return make([]float32, n)
	case TypeInt64:
		return make([]int64, n)
	case TypeInt32:
		return make([]int32, n)
	case TypeBool:
		return make([]bool, n)
	case TypeString:
		return make([]string, n)
	case TypeIndex:
		return make([]int, n)
	case TypeIndexPair:
		return make([]IndexPair, n)
	default:
		panic("variable: unknown dtype")
	}
}
