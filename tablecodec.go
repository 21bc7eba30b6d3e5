package luaembed

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

// decodeTable converts a plain data table into a Go struct pointer of type
// pt, for native callables that declare a struct-pointer parameter but
// receive a table literal rather than a registered object reference.
// gluamapper folds the table's keys to upper camel case (so script code can
// write snake_case or lowerCamel table fields) before mapstructure decodes
// the result into the target struct, the same two-stage conversion the
// teacher's LuaEngine.toGoValue used for RegisterFunction's Go-bound calls.
func decodeTable(tbl *lua.LTable, pt reflect.Type) (reflect.Value, error) {
	raw := gluamapper.ToGoValue(tbl, gluamapper.Option{NameFunc: gluamapper.ToUpperCamelCase})
	out := reflect.New(pt.Elem())
	if err := mapstructure.Decode(raw, out.Interface()); err != nil {
		return reflect.Value{}, newRuntimeError("", "wrong arguments to function")
	}
	return out, nil
}
