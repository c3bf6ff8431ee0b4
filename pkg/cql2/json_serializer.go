package cql2

import (
	"bytes"
	"encoding/json"
)

// ToJSON renders an Expr as canonical cql2-json, using the same structural
// shapes ParseValue accepts, with a stable key order ("op" before "args")
// so byte-level diffs of the output are meaningful.
func ToJSON(e Expr) ([]byte, error) {
	v, err := toJSONValue(e)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}

// orderedObject preserves insertion order through json.Marshal by building
// the output manually rather than relying on map key ordering.
type orderedObject struct {
	keys   []string
	values []interface{}
}

func newOrderedObject() *orderedObject { return &orderedObject{} }

func (o *orderedObject) set(key string, value interface{}) *orderedObject {
	o.keys = append(o.keys, key)
	o.values = append(o.values, value)
	return o
}

func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func toJSONValue(e Expr) (interface{}, error) {
	switch v := e.(type) {
	case Bool:
		return bool(v), nil
	case Integer:
		return int64(v), nil
	case Float:
		return float64(v), nil
	case String:
		return string(v), nil
	case Null:
		return nil, nil
	case Date:
		return newOrderedObject().set("date", v.Time.Format("2006-01-02")), nil
	case Timestamp:
		return newOrderedObject().set("timestamp", canonicalTimestamp(v.Time)), nil
	case OpenBound:
		return "..", nil
	case Interval:
		start, err := intervalBoundJSON(v.Start)
		if err != nil {
			return nil, err
		}
		end, err := intervalBoundJSON(v.End)
		if err != nil {
			return nil, err
		}
		return newOrderedObject().set("interval", []interface{}{start, end}), nil
	case Property:
		return newOrderedObject().set("property", v.Name), nil
	case Geometry:
		raw, err := serializeGeoJSON(v)
		if err != nil {
			return nil, err
		}
		var m map[string]interface{}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
		return geoJSONOrdered(m), nil
	case BBox:
		vals := make([]interface{}, len(v.Values))
		for i, f := range v.Values {
			vals[i] = f
		}
		return newOrderedObject().set("bbox", vals), nil
	case Array:
		items := make([]interface{}, 0, len(v.Items))
		for _, item := range v.Items {
			jv, err := toJSONValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, jv)
		}
		return items, nil
	case Operation:
		args := make([]interface{}, 0, len(v.Args))
		for _, a := range v.Args {
			jv, err := toJSONValue(a)
			if err != nil {
				return nil, err
			}
			args = append(args, jv)
		}
		return newOrderedObject().set("op", v.Op).set("args", args), nil
	}
	return nil, newParseError(Pos{}, "cannot serialize %T to cql2-json", e)
}

func intervalBoundJSON(e Expr) (interface{}, error) {
	if _, ok := e.(OpenBound); ok {
		return "..", nil
	}
	return toJSONValue(e)
}

// geoJSONOrdered re-keys a decoded GeoJSON object with "type" first, the
// way every hand-written GeoJSON fixture in the wild does, even though the
// GeoJSON spec itself does not require key order.
func geoJSONOrdered(m map[string]interface{}) *orderedObject {
	o := newOrderedObject()
	if t, ok := m["type"]; ok {
		o.set("type", t)
	}
	for _, k := range []string{"coordinates", "geometries"} {
		if v, ok := m[k]; ok {
			o.set(k, v)
		}
	}
	for k, v := range m {
		if k == "type" || k == "coordinates" || k == "geometries" {
			continue
		}
		o.set(k, v)
	}
	return o
}
