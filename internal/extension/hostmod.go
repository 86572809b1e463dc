package extension

import (
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"

	elua "github.com/dshills/docshare/internal/extension/lua"
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/jsonapi"
	"github.com/dshills/docshare/internal/notify"
)

// hostModule builds the table returned by require("host").
func (e *Extension) hostModule(L *lua.LState) int {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"get_api": e.luaGetAPI,
		"notify":  e.luaNotify,
		"log":     e.luaLog,
		"keys":    e.luaKeys,
		"exists":  e.luaExists,
	})
	L.SetField(mod, "extension", lua.LString(e.manifest.Name))
	L.SetField(mod, "version", lua.LString(e.manifest.Version))
	L.Push(mod)
	return 1
}

// activeFrame returns the command frame of the running Run or Call.
func (e *Extension) activeFrame() *host.Context {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.frame
}

// currentFrame returns the active command frame or raises a Lua error.
func (e *Extension) currentFrame(L *lua.LState) *host.Context {
	hc := e.activeFrame()
	if hc == nil {
		L.RaiseError("no active command frame")
	}
	return hc
}

func (e *Extension) require(L *lua.LState, c elua.Capability) {
	if err := e.state.Sandbox().CheckCapability(c); err != nil {
		L.RaiseError("%s", err.Error())
	}
}

// luaGetAPI implements host.get_api(name). It returns a table of
// functions mirroring the capability table, or nil and a message.
func (e *Extension) luaGetAPI(L *lua.LState) int {
	e.require(L, elua.CapabilityAPI)
	name := L.CheckString(1)
	hc := e.currentFrame(L)

	v, err := hc.GetSharedAPI(name)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	var tbl *lua.LTable
	switch api := v.(type) {
	case jsonapi.APIV1:
		tbl = e.apiTable(L, api.OpenKey, api.GetPath, api.GetInfo, api.CloseKey)
	case jsonapi.APIV2:
		tbl = e.apiTable(L, api.OpenKey, api.GetPath, api.GetInfo, api.CloseKey)
		L.SetField(tbl, "close_path", L.NewFunction(func(L *lua.LState) int {
			api.ClosePath(pathRef(optHandle(L, 1)))
			return 0
		}))
		L.SetField(tbl, "get_json", L.NewFunction(func(L *lua.LState) int {
			raw, ok := api.GetJSON(valueRef(optHandle(L, 1)))
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(lua.LString(raw))
			return 1
		}))
		L.SetField(tbl, "get_len", L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LNumber(api.GetLen(valueRef(optHandle(L, 1)))))
			return 1
		}))
	default:
		L.Push(lua.LNil)
		L.Push(lua.LString("shared API " + name + " is not callable from Lua"))
		return 2
	}
	L.Push(tbl)
	return 1
}

func (e *Extension) apiTable(
	L *lua.LState,
	openKey func(*host.Context, string) jsonapi.KeyRef,
	getPath func(jsonapi.KeyRef, string) jsonapi.PathRef,
	getInfo func(jsonapi.ValueRef) (int, jsonapi.JSONType, int),
	closeKey func(jsonapi.KeyRef),
) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "open_key", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		pushHandle(L, "key", uint64(openKey(e.currentFrame(L), name)))
		return 1
	}))
	L.SetField(tbl, "get_path", L.NewFunction(func(L *lua.LState) int {
		key := keyRef(optHandle(L, 1))
		path := L.CheckString(2)
		pushHandle(L, "path", uint64(getPath(key, path)))
		return 1
	}))
	L.SetField(tbl, "get_info", L.NewFunction(func(L *lua.LState) int {
		status, jtype, size := getInfo(valueRef(optHandle(L, 1)))
		L.Push(lua.LNumber(status))
		L.Push(lua.LNumber(jtype))
		L.Push(lua.LNumber(size))
		return 3
	}))
	L.SetField(tbl, "close_key", L.NewFunction(func(L *lua.LState) int {
		closeKey(keyRef(optHandle(L, 1)))
		return 0
	}))

	types := L.NewTable()
	for _, t := range []jsonapi.JSONType{jsonapi.String, jsonapi.Int, jsonapi.Float, jsonapi.Bool, jsonapi.Object, jsonapi.Array, jsonapi.Null, jsonapi.Err} {
		L.SetField(types, strings.ToUpper(t.String()), lua.LNumber(t))
	}
	L.SetField(tbl, "types", types)
	return tbl
}

// luaNotify implements host.notify(kind, event, key).
func (e *Extension) luaNotify(L *lua.LState) int {
	e.require(L, elua.CapabilityNotify)
	kindName := L.CheckString(1)
	event := L.CheckString(2)
	key := L.CheckString(3)

	kind, ok := notify.KindByName(kindName)
	if !ok {
		L.ArgError(1, "unknown event kind "+kindName)
		return 0
	}
	if err := e.currentFrame(L).NotifyKeyspaceEvent(kind, event, key); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// luaLog implements host.log(level, msg, fields).
func (e *Extension) luaLog(L *lua.LState) int {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(L.CheckString(1))); err != nil {
		L.ArgError(1, "invalid level")
		return 0
	}
	msg := L.CheckString(2)
	attrs := elua.ToAttrs(L.OptTable(3, nil))

	logger := e.logger
	if hc := e.activeFrame(); hc != nil {
		logger = hc.Logger().With("extension", e.manifest.Name)
	}
	logger.Log(L.Context(), level, msg, attrs...)
	return 0
}

// luaKeys implements host.keys(pattern).
func (e *Extension) luaKeys(L *lua.LState) int {
	e.require(L, elua.CapabilityKeyspaceRead)
	pattern := L.OptString(1, "*")
	hc := e.currentFrame(L)

	var keys []string
	for _, k := range hc.Server().Store().Keys() {
		if notify.MatchKey(k, pattern) {
			keys = append(keys, k)
		}
	}
	L.Push(elua.ToLuaValue(L, keys))
	return 1
}

// luaExists implements host.exists(key).
func (e *Extension) luaExists(L *lua.LState) int {
	e.require(L, elua.CapabilityKeyspaceRead)
	key := L.CheckString(1)
	L.Push(lua.LBool(e.currentFrame(L).Server().Store().Exists(key)))
	return 1
}
