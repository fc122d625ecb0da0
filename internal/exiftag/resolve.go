package exiftag

import "strconv"

// Resolved is a tag block with numeric ids replaced by names.
type Resolved struct {
	Tags TagMap
	// GPS holds the resolved GPS sub-block, nil when there is none.
	GPS    TagMap
	GPSErr error
	// ExifErr reports an unreadable Exif sub-block; Tags is then incomplete.
	ExifErr error
}

// Resolve maps raw ids to names through MainTags and GPSTags. Pointer tags
// are dropped; the GPS sub-block is resolved on its own and never appears in
// Tags.
func Resolve(raw Raw) Resolved {
	res := Resolved{
		Tags:    make(TagMap, len(raw.Main)),
		GPSErr:  raw.GPSErr,
		ExifErr: raw.ExifErr,
	}

	for id, v := range raw.Main {
		switch id {
		case ExifPointer, GPSPointer, InteropPointer:
			continue
		}
		res.Tags[Name(MainTags, id)] = v
	}

	if raw.GPS != nil {
		res.GPS = make(TagMap, len(raw.GPS))
		for id, v := range raw.GPS {
			res.GPS[Name(GPSTags, id)] = v
		}
	}

	return res
}

// Name looks up id in table, falling back to its decimal form.
func Name(table map[uint16]string, id uint16) string {
	if name, ok := table[id]; ok {
		return name
	}
	return strconv.Itoa(int(id))
}
