package geometry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidState is returned when a state label is neither a known flag
// name nor an integer literal.
var ErrInvalidState = errors.New("invalid state label")

// State is a bitmask of renderer hints attached to a material.
type State uint32

// State flags. Bit positions are fixed by the engine's file formats.
const (
	StateNormal          State = 0
	StateTTextureBlack   State = 1 << 0  // Black texture is transparent
	StateTTextureWhite   State = 1 << 1  // White texture is transparent
	StateTTextureDiffuse State = 1 << 2  // Transparent texture
	StateWrap            State = 1 << 3  // Wrap addressing
	StateClamp           State = 1 << 4  // Clamp addressing
	StateLight           State = 1 << 5  // Fully bright
	StateDualBlack       State = 1 << 6  // Dual texture, black
	StateDualWhite       State = 1 << 7  // Dual texture, white
	StatePart1           State = 1 << 8  // LOD part 1
	StatePart2           State = 1 << 9  // LOD part 2
	StatePart3           State = 1 << 10 // LOD part 3
	StatePart4           State = 1 << 11 // LOD part 4
	StateTwoFace         State = 1 << 12 // Render both faces
	StateAlpha           State = 1 << 13 // Alpha channel is transparency
	StateSecond          State = 1 << 14 // Use second texture
	StateFog             State = 1 << 15 // Render fog
	StateTColorBlack     State = 1 << 16 // Black color is transparent
	StateTColorWhite     State = 1 << 17 // White color is transparent
	StateText            State = 1 << 18 // Text rendering
	StateOpaqueTexture   State = 1 << 19 // Opaque texture
	StateOpaqueColor     State = 1 << 20 // Opaque color
)

// stateBits is the number of registered flags.
const stateBits = 21

// stateNames maps bit index to label; index i names 1<<i.
var stateNames = [stateBits]string{
	"ttexture_black",
	"ttexture_white",
	"ttexture_diffuse",
	"wrap",
	"clamp",
	"light",
	"dual_black",
	"dual_white",
	"part1",
	"part2",
	"part3",
	"part4",
	"2face",
	"alpha",
	"second",
	"fog",
	"tcolor_black",
	"tcolor_white",
	"text",
	"opaque_texture",
	"opaque_color",
}

// stateByName is the reverse of stateNames, plus "normal".
var stateByName = func() map[string]State {
	m := make(map[string]State, stateBits+1)
	m["normal"] = StateNormal
	for i, name := range stateNames {
		m[name] = State(1) << i
	}
	return m
}()

// registeredStates masks all named flags.
const registeredStates State = 1<<stateBits - 1

// EncodeState converts a comma-separated label list to a mask.
//
// Tokens that are not flag names are parsed as decimal integer literals and
// OR-ed in unchecked, so bits above the registered range can be set this way.
// Existing model files rely on it.
func EncodeState(text string) (State, error) {
	var result State
	for _, token := range strings.Split(text, ",") {
		if flag, ok := stateByName[token]; ok {
			result |= flag
			continue
		}
		v, err := parseStateLiteral(token)
		if err != nil {
			return 0, err
		}
		result |= v
	}
	return result, nil
}

// parseStateLiteral parses an unnamed state token.
func parseStateLiteral(token string) (State, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(token), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, token)
	}
	return State(v), nil
}

// DecodeState converts a mask to its comma-separated label list.
// Zero decodes to "normal". Registered flags are listed in ascending bit
// order; any bits above them are appended as a single integer literal, which
// EncodeState accepts back.
func DecodeState(s State) string {
	if s == StateNormal {
		return "normal"
	}

	var labels []string
	for i, name := range stateNames {
		if s&(State(1)<<i) != 0 {
			labels = append(labels, name)
		}
	}
	if extra := s &^ registeredStates; extra != 0 {
		labels = append(labels, strconv.FormatUint(uint64(extra), 10))
	}
	return strings.Join(labels, ",")
}

// String returns the label list for s.
func (s State) String() string {
	return DecodeState(s)
}

// Has reports whether all bits of flag are set in s.
func (s State) Has(flag State) bool {
	return s&flag == flag
}
