// Package field implements the byte-offset field codec that the query
// iterator uses to read and write component payload rows. A field is
// addressed by a (type, offset) pair; the codec has no notion of a Go
// struct tag or reflect.Type, since the schema describing a component's
// layout is supplied at run time by the query compiler, not known at
// compile time.
package field

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/grailbio/base/errors"
)

// Type enumerates the primitive field types a component payload row can
// carry, per the field type set fixed by the embedding contract.
type Type int

const (
	Int8 Type = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	// Pointer fields are stored as a plain uintptr in the packed row, not
	// as an unsafe.Pointer overlapping the row's backing array: a pointer
	// value living inside a []byte is invisible to the garbage collector,
	// which can reclaim the referent out from under it. Decode/Encode
	// convert to/from unsafe.Pointer only at the call boundary; whatever
	// keeps the referent alive (typically a Foreign side-table entry) has
	// to live outside the row.
	Pointer
)

// Width returns the number of bytes t occupies in a packed row.
func (t Type) Width() int {
	switch t {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64, Pointer:
		return 8
	default:
		panic(errors.E("field: invalid type", t))
	}
}

// Spec describes one field of a component's payload: its name (used only
// for the consumer-facing Row, never for storage), its primitive type,
// and its byte offset within the packed row.
type Spec struct {
	Name   string
	Type   Type
	Offset int
}

// Value is a small tagged union holding one field's value, decoded from
// or about to be encoded into a payload row.
type Value struct {
	Type Type
	i    int64
	u    uint64
	f64  float64
	b    bool
	ptr  unsafe.Pointer
}

func IntValue(t Type, v int64) Value     { return Value{Type: t, i: v} }
func UintValue(t Type, v uint64) Value    { return Value{Type: t, u: v} }
func Float32Value(v float32) Value        { return Value{Type: Float32, f64: float64(v)} }
func Float64Value(v float64) Value        { return Value{Type: Float64, f64: v} }
func BoolValue(v bool) Value              { return Value{Type: Bool, b: v} }
func PointerValue(v unsafe.Pointer) Value { return Value{Type: Pointer, ptr: v} }

func (v Value) Int() int64          { return v.i }
func (v Value) Uint() uint64        { return v.u }
func (v Value) Float32() float32    { return float32(v.f64) }
func (v Value) Float64() float64    { return v.f64 }
func (v Value) Bool() bool          { return v.b }
func (v Value) Pointer() unsafe.Pointer { return v.ptr }

// Decode reads the field described by spec out of row at spec.Offset.
func Decode(spec Spec, row []byte) (Value, error) {
	if spec.Offset < 0 || spec.Offset+spec.Type.Width() > len(row) {
		return Value{}, errors.E("field: offset out of range", spec.Name, spec.Offset)
	}
	b := row[spec.Offset:]
	switch spec.Type {
	case Int8:
		return IntValue(Int8, int64(int8(b[0]))), nil
	case Uint8:
		return UintValue(Uint8, uint64(b[0])), nil
	case Bool:
		return BoolValue(b[0] != 0), nil
	case Int16:
		return IntValue(Int16, int64(int16(binary.LittleEndian.Uint16(b)))), nil
	case Uint16:
		return UintValue(Uint16, uint64(binary.LittleEndian.Uint16(b))), nil
	case Int32:
		return IntValue(Int32, int64(int32(binary.LittleEndian.Uint32(b)))), nil
	case Uint32:
		return UintValue(Uint32, uint64(binary.LittleEndian.Uint32(b))), nil
	case Float32:
		return Float32Value(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	case Int64:
		return IntValue(Int64, int64(binary.LittleEndian.Uint64(b))), nil
	case Uint64:
		return UintValue(Uint64, binary.LittleEndian.Uint64(b)), nil
	case Float64:
		return Float64Value(math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
	case Pointer:
		return PointerValue(unsafe.Pointer(uintptr(binary.LittleEndian.Uint64(b)))), nil
	default:
		return Value{}, errors.E("field: invalid type", spec.Name, spec.Type)
	}
}

// Encode writes v into row at spec.Offset, rejecting values that do not
// fit spec.Type's declared width.
func Encode(spec Spec, row []byte, v Value) error {
	if spec.Offset < 0 || spec.Offset+spec.Type.Width() > len(row) {
		return errors.E("field: offset out of range", spec.Name, spec.Offset)
	}
	b := row[spec.Offset:]
	switch spec.Type {
	case Int8:
		if v.i < math.MinInt8 || v.i > math.MaxInt8 {
			return errors.E("field: invalid field value", spec.Name, v.i)
		}
		b[0] = byte(int8(v.i))
	case Uint8:
		if v.u > math.MaxUint8 {
			return errors.E("field: invalid field value", spec.Name, v.u)
		}
		b[0] = byte(v.u)
	case Bool:
		if v.b {
			b[0] = 1
		} else {
			b[0] = 0
		}
	case Int16:
		if v.i < math.MinInt16 || v.i > math.MaxInt16 {
			return errors.E("field: invalid field value", spec.Name, v.i)
		}
		binary.LittleEndian.PutUint16(b, uint16(int16(v.i)))
	case Uint16:
		if v.u > math.MaxUint16 {
			return errors.E("field: invalid field value", spec.Name, v.u)
		}
		binary.LittleEndian.PutUint16(b, uint16(v.u))
	case Int32:
		if v.i < math.MinInt32 || v.i > math.MaxInt32 {
			return errors.E("field: invalid field value", spec.Name, v.i)
		}
		binary.LittleEndian.PutUint32(b, uint32(int32(v.i)))
	case Uint32:
		if v.u > math.MaxUint32 {
			return errors.E("field: invalid field value", spec.Name, v.u)
		}
		binary.LittleEndian.PutUint32(b, uint32(v.u))
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v.f64)))
	case Int64:
		binary.LittleEndian.PutUint64(b, uint64(v.i))
	case Uint64:
		binary.LittleEndian.PutUint64(b, v.u)
	case Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v.f64))
	case Pointer:
		binary.LittleEndian.PutUint64(b, uint64(uintptr(v.ptr)))
	default:
		return errors.E("field: invalid type", spec.Name, spec.Type)
	}
	return nil
}
