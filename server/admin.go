package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminReset 管理接口：清空所有房间
// POST /admin/reset-rooms，要求 Authorization: Bearer <ADMIN_KEY>
// 与 WebSocket 管理会话等价，给脚本化运维用
func HandleAdminReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+Conf.AdminKey {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Unauthorized",
		})
		return
	}

	count := GetHub().ResetAllRooms()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"message":    "All rooms have been reset",
		"roomsReset": count,
	})
}
