package load

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"kinetic/motor"
)

// 参数表结构中的固定名称
const (
	tagTable   = "AcoposParameterTable"
	tagRoot    = "Root"
	tagGroup   = "Group"
	attrName   = "Name"
	attrValue  = "Value"
	rootFolder = "Parameters"
)

// node 通用 XML 节点
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []node     `xml:",any"`
}

// attr 读取属性值
func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// LoadFile 加载参数表文件 (*.apt)
func LoadFile(filename string) (motor.Parameters, error) {
	file, err := os.Open(filename)
	if err != nil {
		return motor.Parameters{}, err
	}
	defer file.Close()
	p, err := LoadReader(file)
	if fe, ok := err.(*FormatError); ok {
		fe.Source = filename
	}
	return p, err
}

// LoadString 从字符串加载参数表
func LoadString(s string) (motor.Parameters, error) {
	return LoadReader(strings.NewReader(s))
}

// LoadReader 加载参数表
// 只检查顶层结构, 任何错误都不返回部分结果
func LoadReader(r io.Reader) (motor.Parameters, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	var root node
	if err := dec.Decode(&root); err != nil {
		return motor.Parameters{}, &FormatError{Reason: "unreadable document", Err: err}
	}
	block, err := motorBlock(&root)
	if err != nil {
		return motor.Parameters{}, err
	}

	var p motor.Parameters
	p.Name, _ = block.attr(attrName)
	for i := range block.Nodes {
		group := &block.Nodes[i]
		if group.XMLName.Local != tagGroup {
			continue
		}
		for j := range group.Nodes {
			if err := setParameter(&p, &group.Nodes[j]); err != nil {
				return motor.Parameters{}, err
			}
		}
	}
	return p, nil
}

// motorBlock 检查顶层结构并返回唯一的电机节点
func motorBlock(root *node) (*node, error) {
	if root.XMLName.Local != tagTable {
		return nil, &FormatError{Reason: fmt.Sprintf("root element is <%s>", root.XMLName.Local)}
	}
	if len(root.Nodes) == 0 {
		return nil, &FormatError{Reason: "empty parameter table"}
	}
	params := &root.Nodes[0]
	if params.XMLName.Local != tagRoot {
		return nil, &FormatError{Reason: fmt.Sprintf("first child is <%s>, want <%s>", params.XMLName.Local, tagRoot)}
	}
	if name, ok := params.attr(attrName); !ok || name != rootFolder || len(params.Attrs) != 1 {
		return nil, &FormatError{Reason: fmt.Sprintf("<%s> attributes are not {Name: %s}", tagRoot, rootFolder)}
	}
	if len(params.Nodes) != 1 {
		return nil, &FormatError{Reason: fmt.Sprintf("found %d motor blocks, want exactly one", len(params.Nodes))}
	}
	block := &params.Nodes[0]
	if _, ok := block.attr(attrName); !ok {
		return nil, &FormatError{Reason: "motor block has no Name attribute"}
	}
	return block, nil
}

// setParameter 写入一个叶子参数, 未知参数忽略
func setParameter(p *motor.Parameters, leaf *node) error {
	name, _ := leaf.attr(attrName)
	field, ok := motor.Lookup(name)
	if !ok {
		return nil
	}
	raw, ok := leaf.attr(attrValue)
	if !ok {
		return &ValueError{Name: name, Err: fmt.Errorf("no %s attribute", attrValue)}
	}
	v, err := ParseValue(raw)
	if err != nil {
		return &ValueError{Name: name, Value: raw, Err: err}
	}
	return p.Set(field, v)
}
