package typeinfo

import (
	"reflect"
	"strings"
)

// TagKey is the struct tag key read by prism.
const TagKey = "prism"

type tagInfo struct {
	name      string
	ignored   bool
	noFlatten bool
}

func parseTag(tag reflect.StructTag) tagInfo {
	raw, ok := tag.Lookup(TagKey)
	if !ok {
		return tagInfo{}
	}
	if raw == "-" {
		return tagInfo{ignored: true}
	}
	name, rest, _ := strings.Cut(raw, ",")
	info := tagInfo{name: strings.TrimSpace(name)}
	for _, opt := range strings.Split(rest, ",") {
		if strings.TrimSpace(opt) == "noflatten" {
			info.noFlatten = true
		}
	}
	return info
}
