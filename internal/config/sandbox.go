package config

import (
	lua "github.com/yuin/gopher-lua"
)

const (
	// luaCallStackSize bounds recursion in tool definitions
	luaCallStackSize = 256
	// luaRegistrySize bounds the value stack
	luaRegistrySize = 8 * 1024
)

// blockedGlobals are removed before a definition runs. What remains is
// string, table, math and the basic functions (type, tostring, pairs, ...).
var blockedGlobals = []string{
	"os", "io", "debug",
	"require", "module", "package",
	"dofile", "loadfile", "load", "loadstring",
	"collectgarbage", "rawset", "rawget", "setfenv", "getfenv",
}

// newSandboxedVM creates a Lua state that can only evaluate declarative
// code. Tool definitions cannot run commands, touch files or load code.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: luaCallStackSize,
		RegistrySize:  luaRegistrySize,
	})
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
