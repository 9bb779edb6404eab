package projection

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/aretw0/prism/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"go.trai.ch/zerr"
)

// ValueTransform maps between a member's native representation and the host's.
type ValueTransform interface {
	// HostType returns the host type used for values of type t.
	HostType(t reflect.Type) reflect.Type
	// ToHost converts a member value to its host representation.
	ToHost(v reflect.Value) reflect.Value
	// FromHost converts a host value to type t.
	FromHost(v reflect.Value, t reflect.Type) (reflect.Value, error)
}

var (
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
	float32Type  = reflect.TypeFor[float32]()
	float64Type  = reflect.TypeFor[float64]()
)

// DefaultTransform exposes time.Duration as float64 seconds and float32 as float64.
// Durations survive the round trip to the nanosecond below 2^50 ns (about 13 days);
// longer ones keep float64 precision. Every other type, time.Time included, passes
// through unchanged. Values coming back from the host are converted numerically when
// possible and weakly decoded otherwise; numbers sent to a time.Time member are
// read as seconds since the Unix epoch, with 0 meaning the zero time.
type DefaultTransform struct{}

var _ ValueTransform = DefaultTransform{}

// HostType implements ValueTransform.
func (DefaultTransform) HostType(t reflect.Type) reflect.Type {
	switch t {
	case durationType, float32Type:
		return float64Type
	default:
		return t
	}
}

// ToHost implements ValueTransform.
func (DefaultTransform) ToHost(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	switch v.Type() {
	case durationType:
		return reflect.ValueOf(time.Duration(v.Int()).Seconds())
	case float32Type:
		return reflect.ValueOf(v.Float())
	default:
		return v
	}
}

// FromHost implements ValueTransform.
func (DefaultTransform) FromHost(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			v = reflect.Value{}
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return reflect.Zero(t), nil
	}

	if t == durationType && isNumber(v.Kind()) {
		return reflect.ValueOf(time.Duration(math.Round(asFloat(v) * float64(time.Second)))), nil
	}
	if t == timeType && isNumber(v.Kind()) {
		f := asFloat(v)
		if f == 0 {
			return reflect.Zero(timeType), nil
		}
		return reflect.ValueOf(time.Unix(0, int64(math.Round(f*1e9))).UTC()), nil
	}
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumber(v.Kind()) && isNumber(t.Kind()) {
		return v.Convert(t), nil
	}

	out := reflect.New(t)
	if err := mapstructure.WeakDecode(v.Interface(), out.Interface()); err != nil {
		wrapped := zerr.Wrap(domain.ErrTypeMismatch, fmt.Sprintf("cannot convert %s to %s", v.Type(), t))
		return reflect.Value{}, zerr.With(wrapped, "cause", err.Error())
	}
	return out.Elem(), nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func asFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return 0
	}
}
