package valueobject

// Author 消息作者（不可变值对象）
// 只有两种合法取值：用户本人 (me) 和对方角色 (them)。
type Author string

const (
	AuthorMe   Author = "me"
	AuthorThem Author = "them"
)

// Valid 判断作者取值是否合法
func (a Author) Valid() bool {
	return a == AuthorMe || a == AuthorThem
}

// String 返回字符串表示
func (a Author) String() string {
	return string(a)
}

// IsMe 判断是否来自用户本人
func (a Author) IsMe() bool {
	return a == AuthorMe
}
