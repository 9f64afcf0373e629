package api

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/annel0/monument/internal/floorplan"
	"github.com/annel0/monument/internal/monument"
	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/viewport"
)

// ProtocolVersion версия потока /ws
const ProtocolVersion = 1

// Типы сообщений сервера
const (
	MsgSnapshot    = "SNAPSHOT"
	MsgNodeAdded   = "NODE_ADDED"
	MsgAssetFailed = "ASSET_FAILED"
	MsgFrame       = "FRAME"
)

// Типы сообщений клиента
const (
	MsgOrbit  = "ORBIT"
	MsgZoom   = "ZOOM"
	MsgResize = "RESIZE"
)

// SnapshotMsg первое сообщение после подключения: вся сцена и текущий кадр
type SnapshotMsg struct {
	Type            string               `json:"type"`
	ProtocolVersion int                  `json:"protocolVersion"`
	Dimensions      floorplan.Dimensions `json:"dimensions"`
	Settings        *monument.Settings   `json:"settings"`
	Scene           scene.Snapshot       `json:"scene"`
	Frame           viewport.Frame       `json:"frame"`
}

// NodeAddedMsg узел, добавленный после снимка (обычно загруженный меш)
type NodeAddedMsg struct {
	Type string          `json:"type"`
	Node json.RawMessage `json:"node"`
}

// AssetFailedMsg меш не загрузился, ячейка останется пустой
type AssetFailedMsg struct {
	Type    string          `json:"type"`
	Failure json.RawMessage `json:"failure"`
}

// FrameMsg состояние камеры после шага цикла отрисовки
type FrameMsg struct {
	Type  string         `json:"type"`
	Frame viewport.Frame `json:"frame"`
}

// ClientMsg ввод пользователя
type ClientMsg struct {
	Type   string  `json:"type"`
	Delta  float64 `json:"delta,omitempty"` // ORBIT: поворот в радианах
	Steps  float64 `json:"steps,omitempty"` // ZOOM: > 0 приближение
	Width  int     `json:"width,omitempty"` // RESIZE
	Height int     `json:"height,omitempty"`
}

// applyClientMsg передает ввод в управление камерой
func applyClientMsg(controls *viewport.Controls, msg ClientMsg) error {
	switch msg.Type {
	case MsgOrbit:
		if math.IsNaN(msg.Delta) || math.IsInf(msg.Delta, 0) {
			return fmt.Errorf("orbit: invalid delta %v", msg.Delta)
		}
		controls.Rotate(msg.Delta)
	case MsgZoom:
		if math.IsNaN(msg.Steps) || math.IsInf(msg.Steps, 0) {
			return fmt.Errorf("zoom: invalid steps %v", msg.Steps)
		}
		controls.Zoom(msg.Steps)
	case MsgResize:
		if msg.Width <= 0 || msg.Height <= 0 {
			return fmt.Errorf("resize: invalid size %dx%d", msg.Width, msg.Height)
		}
		controls.Resize(msg.Width, msg.Height)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}
