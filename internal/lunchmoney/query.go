package lunchmoney

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// encodeQuery projects a request struct into URL query parameters. Only
// string and integer scalar fields are carried over, named by their json tag;
// nested structs, slices and other kinds are silently dropped. Zero values
// are omitted.
func encodeQuery(req interface{}) url.Values {
	values := url.Values{}
	if req == nil {
		return values
	}

	v := reflect.ValueOf(req)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return values
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return values
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			name = field.Name
		}

		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.String:
			if s := fv.String(); s != "" {
				values.Set(name, s)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n := fv.Int(); n != 0 {
				values.Set(name, strconv.FormatInt(n, 10))
			}
		}
	}

	return values
}
