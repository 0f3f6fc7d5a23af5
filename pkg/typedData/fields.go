package typedData

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	arraySuffix  = regexp.MustCompile(`\[(\d*)\]$`)
	intType      = regexp.MustCompile(`^(u?)int(\d*)$`)
	fixedBytesTy = regexp.MustCompile(`^bytes(\d+)$`)
)

// splitArrayType strips the outermost array suffix. ok is false for
// non-array types; length is -1 for dynamic arrays.
func splitArrayType(t string) (elem string, length int, ok bool) {
	m := arraySuffix.FindStringSubmatchIndex(t)
	if m == nil {
		return t, 0, false
	}
	elem = t[:m[0]]
	if m[2] == m[3] {
		return elem, -1, true
	}
	n, err := strconv.Atoi(t[m[2]:m[3]])
	if err != nil {
		return elem, 0, false
	}
	return elem, n, true
}

func baseType(t string) string {
	for {
		elem, _, ok := splitArrayType(t)
		if !ok {
			return t
		}
		t = elem
	}
}

func isPrimitive(t string) bool {
	switch t {
	case "address", "bool", "string", "bytes":
		return true
	}
	if m := fixedBytesTy.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n >= 1 && n <= 32
	}
	if m := intType.FindStringSubmatch(t); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return false
		}
		return n >= 8 && n <= 256 && n%8 == 0
	}
	return false
}

// validateTypes checks that primaryType and every struct type it references
// are declared and that field types are well formed.
func validateTypes(typeDefs map[string][]types.TypedField, primaryType string) error {
	seen := map[string]bool{}
	var walk func(name string, path string) error
	walk = func(name string, path string) error {
		if seen[name] {
			return nil
		}
		fields, ok := typeDefs[name]
		if !ok {
			return fmt.Errorf("%w: type %q referenced by %s is not declared", types.ErrEncoding, name, path)
		}
		seen[name] = true
		names := make(map[string]bool, len(fields))
		for _, f := range fields {
			if f.Name == "" {
				return fmt.Errorf("%w: type %q has a field without a name", types.ErrEncoding, name)
			}
			if names[f.Name] {
				return fmt.Errorf("%w: type %q declares field %q twice", types.ErrEncoding, name, f.Name)
			}
			names[f.Name] = true
			base := baseType(f.Type)
			if base == "" {
				return fmt.Errorf("%w: field %s.%s has no type", types.ErrEncoding, name, f.Name)
			}
			if isPrimitive(base) {
				continue
			}
			if base == types.EIP712DomainType {
				return fmt.Errorf("%w: field %s.%s references the domain type", types.ErrEncoding, name, f.Name)
			}
			if err := walk(base, name+"."+f.Name); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(primaryType, "primaryType")
}

// normalizeStruct returns a copy of data whose keys match the declared
// fields of typeName exactly and whose values are in the shapes the
// go-ethereum encoder accepts.
func normalizeStruct(typeDefs map[string][]types.TypedField, typeName string, data map[string]interface{}, path string) (map[string]interface{}, error) {
	fields := typeDefs[typeName]
	if len(data) != len(fields) {
		return nil, fmt.Errorf("%w: %s has %d fields, %s declares %d", types.ErrEncoding, path, len(data), typeName, len(fields))
	}
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		v, ok := data[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s is missing field %q", types.ErrEncoding, path, f.Name)
		}
		nv, err := normalizeValue(typeDefs, f.Type, v, path+"."+f.Name)
		if err != nil {
			return nil, err
		}
		out[f.Name] = nv
	}
	return out, nil
}

func normalizeValue(typeDefs map[string][]types.TypedField, fieldType string, v interface{}, path string) (interface{}, error) {
	if elem, length, ok := splitArrayType(fieldType); ok {
		items, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s must be an array", types.ErrEncoding, path)
		}
		if length >= 0 && len(items) != length {
			return nil, fmt.Errorf("%w: %s must have %d elements, got %d", types.ErrEncoding, path, length, len(items))
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			nv, err := normalizeValue(typeDefs, elem, item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	}

	if _, ok := typeDefs[fieldType]; ok && !isPrimitive(fieldType) {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s must be an object of type %s", types.ErrEncoding, path, fieldType)
		}
		return normalizeStruct(typeDefs, fieldType, m, path)
	}

	switch {
	case fieldType == "string":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", types.ErrEncoding, path)
		}
		return s, nil
	case fieldType == "bool":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a bool", types.ErrEncoding, path)
		}
		return b, nil
	case fieldType == "address":
		switch a := v.(type) {
		case string:
			if !common.IsHexAddress(a) {
				return nil, fmt.Errorf("%w: %s is not a valid address", types.ErrEncoding, path)
			}
			return common.HexToAddress(a).Hex(), nil
		case common.Address:
			return a.Hex(), nil
		}
		return nil, fmt.Errorf("%w: %s must be an address", types.ErrEncoding, path)
	case fieldType == "bytes" || fixedBytesTy.MatchString(fieldType):
		b, err := toBytes(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrEncoding, path, err)
		}
		if m := fixedBytesTy.FindStringSubmatch(fieldType); m != nil {
			n, _ := strconv.Atoi(m[1])
			if len(b) > n {
				return nil, fmt.Errorf("%w: %s has %d bytes, %s holds %d", types.ErrEncoding, path, len(b), fieldType, n)
			}
		}
		return b, nil
	case intType.MatchString(fieldType):
		n, err := toBigInt(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrEncoding, path, err)
		}
		if err := checkIntRange(fieldType, n); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrEncoding, path, err)
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: %s has unknown type %q", types.ErrEncoding, path, fieldType)
}

func toBytes(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return append([]byte(nil), b...), nil
	case hexutil.Bytes:
		return append([]byte(nil), b...), nil
	case common.Hash:
		return b.Bytes(), nil
	case types.MessageHash:
		return b.Bytes(), nil
	case string:
		decoded, err := hexutil.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes: %v", err)
		}
		return decoded, nil
	}
	return nil, fmt.Errorf("unsupported bytes value of type %T", v)
}

func toBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(n), nil
	case json.Number:
		return parseIntString(n.String())
	case string:
		return parseIntString(n)
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, fmt.Errorf("non-integral number %v", n)
		}
		if math.Abs(n) > 1<<53 {
			return nil, fmt.Errorf("number %v exceeds float precision, pass it as a string", n)
		}
		return big.NewInt(int64(n)), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	}
	return nil, fmt.Errorf("unsupported integer value of type %T", v)
}

func parseIntString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base = 16
		digits = digits[2:]
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok || digits == "" {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

func checkIntRange(fieldType string, n *big.Int) error {
	m := intType.FindStringSubmatch(fieldType)
	bits, _ := strconv.Atoi(m[2])
	if m[1] == "u" {
		if n.Sign() < 0 || n.BitLen() > bits {
			return fmt.Errorf("value %s out of range for %s", n, fieldType)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	minVal := new(big.Int).Neg(limit)
	if n.Cmp(minVal) < 0 || n.Cmp(limit) >= 0 {
		return fmt.Errorf("value %s out of range for %s", n, fieldType)
	}
	return nil
}
