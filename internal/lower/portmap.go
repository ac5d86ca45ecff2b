package lower

import "fmt"

// PortMap records how each word-level port decomposed: port name to bit net
// names, least significant bit first. It is the contract a driver needs to
// talk to a lowered design in word-level terms.
type PortMap map[string][]string

// Split decomposes a port value into per-bit poke values.
func (m PortMap) Split(name string, v uint64) (map[string]uint64, error) {
	bits, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("port %q: not in port map", name)
	}
	out := make(map[string]uint64, len(bits))
	for i, b := range bits {
		out[b] = v >> uint(i) & 1
	}
	return out, nil
}

// Join reassembles a port value from per-bit reads.
func (m PortMap) Join(name string, peek func(string) (uint64, error)) (uint64, error) {
	bits, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("port %q: not in port map", name)
	}
	var v uint64
	for i, b := range bits {
		bit, err := peek(b)
		if err != nil {
			return 0, err
		}
		v |= (bit & 1) << uint(i)
	}
	return v, nil
}
