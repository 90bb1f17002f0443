package load

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"linkage/mechanism"
	"linkage/types"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// JointConfig 关节定义
type JointConfig struct {
	Name     string  `json:"joint_name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pinned   bool    `json:"pinned"`
	Rotating bool    `json:"rotating_joint"`
}

// RodConfig 连杆定义，端点以关节名引用
type RodConfig struct {
	Start string `json:"start_joint"`
	End   string `json:"end_joint"`
}

// Config 机构配置文件
// rotation_center 指向的关节只提供旋转中心坐标，不作为关节加入机构
type Config struct {
	Name           string        `json:"configuration_name,omitempty"`
	RotationCenter string        `json:"rotation_center"`
	Joints         []JointConfig `json:"joints"`
	Rods           []RodConfig   `json:"rods"`
}

// LoadFile 从文件加载配置
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = baseName(path)
	}
	return cfg, nil
}

// LoadString 从字符串加载配置
func LoadString(s string) (*Config, error) {
	return Load(strings.NewReader(s))
}

// Load 解析配置并检查名称引用
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Check 检查关节名唯一、旋转中心存在、连杆引用有效
func (c *Config) Check() error {
	if c.RotationCenter == "" {
		return errors.New("rotation_center is not set")
	}
	seen := make(map[string]bool, len(c.Joints))
	for i, jc := range c.Joints {
		if jc.Name == "" {
			return fmt.Errorf("joint %d has no joint_name", i)
		}
		if seen[jc.Name] {
			return fmt.Errorf("duplicate joint name %q", jc.Name)
		}
		seen[jc.Name] = true
	}
	if _, ok := c.center(); !ok {
		return fmt.Errorf("rotation center %q not found in joints", c.RotationCenter)
	}
	for i, rc := range c.Rods {
		for _, name := range []string{rc.Start, rc.End} {
			if !seen[name] || name == c.RotationCenter {
				return fmt.Errorf("rod %d references undefined joint %q", i, name)
			}
		}
	}
	return nil
}

// center 旋转中心坐标
func (c *Config) center() (r2.Vec, bool) {
	for _, jc := range c.Joints {
		if jc.Name == c.RotationCenter {
			return r2.Vec{X: jc.X, Y: jc.Y}, true
		}
	}
	return r2.Vec{}, false
}

// Names 关节名，下标即 JointID
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Joints))
	for _, jc := range c.Joints {
		if jc.Name != c.RotationCenter {
			names = append(names, jc.Name)
		}
	}
	return names
}

// Index 关节名到 JointID
func (c *Config) Index() map[string]types.JointID {
	index := make(map[string]types.JointID, len(c.Joints))
	for id, name := range c.Names() {
		index[name] = id
	}
	return index
}

// Mechanism 按配置构建机构(未校验)
func (c *Config) Mechanism() (*mechanism.Mechanism, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	center, _ := c.center()
	joints := make([]mechanism.Joint, 0, len(c.Joints))
	for _, jc := range c.Joints {
		if jc.Name == c.RotationCenter {
			continue
		}
		if jc.Pinned && jc.Rotating {
			return nil, &types.ConfigurationError{
				Msg:    fmt.Sprintf("joint %s cannot be both pinned and rotating", jc.Name),
				Joints: []types.JointID{len(joints)},
			}
		}
		switch {
		case jc.Rotating:
			joints = append(joints, mechanism.NewDriven(jc.Name, jc.X, jc.Y, center))
		case jc.Pinned:
			joints = append(joints, mechanism.NewPinned(jc.Name, jc.X, jc.Y))
		default:
			joints = append(joints, mechanism.NewJoint(jc.Name, jc.X, jc.Y))
		}
	}
	index := c.Index()
	rods := make([]mechanism.Rod, len(c.Rods))
	for i, rc := range c.Rods {
		rods[i] = mechanism.NewRod(index[rc.Start], index[rc.End])
	}
	return mechanism.New(joints, rods)
}

// Save 按同一格式写出配置
func (c *Config) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(c)
}

// SaveFile 写出配置文件
func (c *Config) SaveFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Save(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func baseName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.TrimSuffix(name, "_configuration")
}
