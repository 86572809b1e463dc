// Package extension loads and runs Lua extensions against a host.
//
// An extension is either a single .lua file or a directory holding an
// extension.json manifest and the script it names. Scripts reach the host
// through require("host"):
//
//	local host = require("host")
//	local api = host.get_api("DocShare_V1")   -- needs the "api" capability
//	local key = api.open_key("user:1")
//	if key then
//	  local p = api.get_path(key, "$.name")
//	  local status, jtype, size = api.get_info(p)
//	  api.close_key(key)
//	end
//	host.notify("module", "custom.touch", "user:1")  -- needs "notify"
//	host.log("info", "done", {key = "user:1"})
//
// Handles are opaque userdata values; nil stands for the null handle. Every
// Run or Call of an extension is one host command frame, so handles must
// not be kept in globals across runs.
package extension
