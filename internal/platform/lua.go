package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectLuaTable exposes info to Lua as the read-only global "platform":
//
//	platform.os, platform.arch, platform.arch_raw, platform.kernel
//	platform.is_linux, platform.is_macos, platform.is_windows
//	platform.distro = { id = ..., family = ..., version = ... } or nil
//	platform.when(cond, value) -- value if cond, else nil
//
// It must be called before any tool definition is executed.
func InjectLuaTable(L *lua.LState, info *Info) {
	t := L.NewTable()

	L.SetField(t, "os", lua.LString(info.OS))
	L.SetField(t, "arch", lua.LString(info.Arch))
	L.SetField(t, "arch_raw", lua.LString(info.ArchRaw))
	L.SetField(t, "kernel", lua.LString(info.Kernel))

	L.SetField(t, "is_linux", lua.LBool(info.IsLinux()))
	L.SetField(t, "is_macos", lua.LBool(info.IsMacOS()))
	L.SetField(t, "is_windows", lua.LBool(info.IsWindows()))

	if info.HasDistro() {
		distro := L.NewTable()
		L.SetField(distro, "id", lua.LString(info.Distro))
		L.SetField(distro, "family", lua.LString(info.Family))
		L.SetField(distro, "version", lua.LString(info.DistroVersion))
		L.SetField(t, "distro", readOnly(L, distro, "platform.distro"))
	}

	L.SetField(t, "when", L.NewFunction(func(L *lua.LState) int {
		if L.ToBool(1) {
			L.Push(L.Get(2))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))

	L.SetGlobal("platform", readOnly(L, t, "platform"))
}

// readOnly wraps table in an empty proxy whose metatable forwards reads and
// rejects writes.
func readOnly(L *lua.LState, table *lua.LTable, name string) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("%s is read-only", name)
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
