package server

import (
	"math"
	"math/rand"
)

// Block 场景中的一个几何体描述，直接按客户端期望的字段广播
type Block struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	RotY   float64 `json:"rotY"`
	RotX   float64 `json:"rotX,omitempty"`
}

// Layout 房间创建时随机生成一次，之后只读
type Layout struct {
	Walls    []Block `json:"walls"`
	Crates   []Block `json:"crates"`
	Bombsite Block   `json:"bombsite"`
}

const crateCount = 15

// GenerateLayout 生成随机场景：四面围墙 + 随机木箱 + 一块炸弹区
func GenerateLayout() *Layout {
	l := &Layout{}

	// 固定外围墙，40x40 场地
	l.Walls = append(l.Walls,
		Block{Type: "box", Width: 40, Height: 3, Depth: 1, X: 0, Y: 1.5, Z: -19.5},
		Block{Type: "box", Width: 40, Height: 3, Depth: 1, X: 0, Y: 1.5, Z: 19.5},
		Block{Type: "box", Width: 40, Height: 3, Depth: 1, X: -19.5, Y: 1.5, Z: 0, RotY: math.Pi / 2},
		Block{Type: "box", Width: 40, Height: 3, Depth: 1, X: 19.5, Y: 1.5, Z: 0, RotY: math.Pi / 2},
	)

	for i := 0; i < crateCount; i++ {
		l.Crates = append(l.Crates, Block{
			Type:   "box",
			Width:  1 + rand.Float64(),
			Height: 1 + rand.Float64(),
			Depth:  1 + rand.Float64(),
			X:      rand.Float64()*30 - 15,
			Y:      0.5 + rand.Float64(),
			Z:      rand.Float64()*30 - 15,
			RotY:   rand.Float64() * math.Pi * 2,
		})
	}

	l.Bombsite = Block{
		Type:   "plane",
		Width:  10,
		Height: 10,
		X:      rand.Float64()*10 - 5,
		Y:      0.01,
		Z:      rand.Float64()*10 - 5,
		RotX:   -math.Pi / 2,
	}

	return l
}
