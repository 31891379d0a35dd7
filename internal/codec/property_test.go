package codec

import (
	"testing"

	"pgregory.net/rapid"
)

// TestPropertyU16RoundTrip checks encode_u16 . decode_u16 = id on [0,65535],
// one of the round-trip laws from spec.md §8.
func TestPropertyU16RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 65535).Draw(rt, "v")
		words, _, err := EncodeScalar(float64(v), ScalarSpec{Encoding: U16})
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		decoded, err := DecodeScalar(words, ScalarSpec{Encoding: U16})
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if int(decoded) != v {
			rt.Fatalf("round trip mismatch: got %v want %v", decoded, v)
		}
	})
}

func TestPropertyI16RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(-32768, 32767).Draw(rt, "v")
		words, _, err := EncodeScalar(float64(v), ScalarSpec{Encoding: I16})
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		decoded, err := DecodeScalar(words, ScalarSpec{Encoding: I16})
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if int(decoded) != v {
			rt.Fatalf("round trip mismatch: got %v want %v", decoded, v)
		}
	})
}

// TestPropertyBNR16RoundTripWithinHalfScale checks bnr16 decode(encode(x)) ~ x
// to within scale/2.
func TestPropertyBNR16RoundTripWithinHalfScale(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		scale := rapid.Float64Range(0.001, 10).Draw(rt, "scale")
		offset := rapid.Float64Range(-100, 100).Draw(rt, "offset")
		value := rapid.Float64Range(-300, 300).Draw(rt, "value")
		spec := ScalarSpec{Encoding: BNR16, Scale: scale, Offset: offset}

		words, _, err := EncodeScalar(value, spec)
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		decoded, err := DecodeScalar(words, spec)
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		raw := (value - offset) / scale
		if raw > 32767 || raw < -32768 {
			return // clamped; tolerance does not apply
		}
		delta := decoded - value
		if delta < 0 {
			delta = -delta
		}
		if delta > scale/2+1e-6 {
			rt.Fatalf("bnr16 round trip off by %v (scale=%v)", delta, scale)
		}
	})
}

// TestPropertyFloat32SplitBitExact checks float32_split round-trips any
// finite float32 bit-exactly.
func TestPropertyFloat32SplitBitExact(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := rapid.Float32Range(-1e20, 1e20).Draw(rt, "f")
		spec := ScalarSpec{Encoding: Float32Split, WordOrder: LSWFirst}
		words, _, err := EncodeScalar(float64(f), spec)
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		decoded, err := DecodeScalar(words, spec)
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if float32(decoded) != f {
			rt.Fatalf("float32_split not bit exact: got %v want %v", decoded, f)
		}
	})
}

// TestPropertyBitfieldNoOverlapStaysDisjoint checks that two
// non-overlapping mask/shift placements never collide regardless of the
// values packed into them.
func TestPropertyBitfieldNoOverlapStaysDisjoint(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		aVal := rapid.IntRange(0, 0xFF).Draw(rt, "aVal")
		bVal := rapid.IntRange(0, 0xFF).Draw(rt, "bVal")
		var acc uint16
		var err error
		acc, _, err = PackBitfield(acc, float64(aVal), BitfieldSpec{Scalar: ScalarSpec{Encoding: U16}, Mask: 0x00FF, Shift: 0})
		if err != nil {
			rt.Fatalf("pack a: %v", err)
		}
		acc, _, err = PackBitfield(acc, float64(bVal), BitfieldSpec{Scalar: ScalarSpec{Encoding: U16}, Mask: 0x00FF, Shift: 8})
		if err != nil {
			rt.Fatalf("pack b: %v", err)
		}
		gotA, _ := UnpackBitfield(acc, BitfieldSpec{Scalar: ScalarSpec{Encoding: U16}, Mask: 0x00FF, Shift: 0})
		gotB, _ := UnpackBitfield(acc, BitfieldSpec{Scalar: ScalarSpec{Encoding: U16}, Mask: 0x00FF, Shift: 8})
		if int(gotA) != aVal || int(gotB) != bVal {
			rt.Fatalf("bitfield values corrupted: got a=%v b=%v want a=%v b=%v", gotA, gotB, aVal, bVal)
		}
	})
}
