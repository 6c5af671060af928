package hostrtc

import "bootrtc/core"

type mapPrefs map[string]map[string]uint64

func newMapPrefs() mapPrefs {
	return make(mapPrefs)
}

func (m mapPrefs) Open(namespace string, readOnly bool) (core.Namespace, error) {
	if m[namespace] == nil {
		m[namespace] = make(map[string]uint64)
	}
	return mapNamespace(m[namespace]), nil
}

type mapNamespace map[string]uint64

func (n mapNamespace) HasKey(name string) bool {
	_, ok := n[name]
	return ok
}

func (n mapNamespace) GetUint(name string, def uint64) uint64 {
	if v, ok := n[name]; ok {
		return v
	}
	return def
}

func (n mapNamespace) PutUint(name string, value uint64) error {
	n[name] = value
	return nil
}

func (n mapNamespace) Close() error { return nil }
