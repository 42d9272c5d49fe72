package seed

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Fixture 种子数据文件
// bots 中的 soulChip、skeleton、parts、expansions 可以直接写模板 slug，
// 导入时为机器人所有者铸造对应实例
type Fixture struct {
	Templates []map[string]any `yaml:"templates"`
	Bots      []map[string]any `yaml:"bots"`
	Items     []map[string]any `yaml:"items"`
	Accounts  []map[string]any `yaml:"accounts"`
}

// LoadFixture 读取 YAML 种子文件
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read fixture %s", path)
	}
	return ParseFixture(data)
}

// ParseFixture 解析 YAML 种子数据
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, errors.Wrap(err, "failed to parse fixture")
	}
	return &fx, nil
}

// Size 返回条目总数
func (fx *Fixture) Size() int {
	return len(fx.Templates) + len(fx.Bots) + len(fx.Items) + len(fx.Accounts)
}
