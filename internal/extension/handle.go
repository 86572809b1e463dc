package extension

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/docshare/internal/jsonapi"
)

const handleTypeName = "docshare.handle"

// luaHandle is the userdata payload behind a handle in Lua.
type luaHandle struct {
	kind string // "key" or "path"
	id   uint64
}

func registerHandleType(L *lua.LState) {
	mt := L.NewTypeMetatable(handleTypeName)
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		h := checkHandle(L, 1)
		L.Push(lua.LString(fmt.Sprintf("%s handle %#x", h.kind, h.id)))
		return 1
	}))
	L.SetField(mt, "__eq", L.NewFunction(func(L *lua.LState) int {
		a, b := checkHandle(L, 1), checkHandle(L, 2)
		L.Push(lua.LBool(*a == *b))
		return 1
	}))
	L.SetField(mt, "__metatable", lua.LString("locked"))
}

// pushHandle pushes a handle, or nil for the null handle.
func pushHandle(L *lua.LState, kind string, id uint64) {
	if id == 0 {
		L.Push(lua.LNil)
		return
	}
	ud := L.NewUserData()
	ud.Value = &luaHandle{kind: kind, id: id}
	L.SetMetatable(ud, L.GetTypeMetatable(handleTypeName))
	L.Push(ud)
}

func checkHandle(L *lua.LState, n int) *luaHandle {
	ud := L.CheckUserData(n)
	h, ok := ud.Value.(*luaHandle)
	if !ok {
		L.ArgError(n, "handle expected")
		return nil
	}
	return h
}

// optHandle returns the handle at n, or nil when the argument is nil.
func optHandle(L *lua.LState, n int) *luaHandle {
	if L.Get(n) == lua.LNil {
		return nil
	}
	return checkHandle(L, n)
}

func keyRef(h *luaHandle) jsonapi.KeyRef {
	if h == nil || h.kind != "key" {
		return 0
	}
	return jsonapi.KeyRef(h.id)
}

func pathRef(h *luaHandle) jsonapi.PathRef {
	if h == nil || h.kind != "path" {
		return 0
	}
	return jsonapi.PathRef(h.id)
}

func valueRef(h *luaHandle) jsonapi.ValueRef {
	if h == nil {
		return 0
	}
	return jsonapi.ValueRef(h.id)
}
