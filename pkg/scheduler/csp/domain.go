// Package csp 实现有限域约束求解器
//
// 变量取值范围限定在 [0, 64) 之间, 域以位集表示,
// 适用于单日角色选择这类小规模离散决策问题
package csp

import "math/bits"

// MaxDomainSize 单个变量域的最大容量
const MaxDomainSize = 64

// Domain 位集表示的变量取值域
type Domain uint64

// FullDomain 构造包含 [0, n) 全部取值的域
func FullDomain(n int) Domain {
	if n <= 0 {
		return 0
	}
	if n >= MaxDomainSize {
		return Domain(^uint64(0))
	}
	return Domain((uint64(1) << uint(n)) - 1)
}

// Has 判断取值是否在域内
func (d Domain) Has(v int) bool {
	if v < 0 || v >= MaxDomainSize {
		return false
	}
	return d&(1<<uint(v)) != 0
}

// Add 返回加入取值后的域
func (d Domain) Add(v int) Domain {
	if v < 0 || v >= MaxDomainSize {
		return d
	}
	return d | (1 << uint(v))
}

// Remove 返回移除取值后的域
func (d Domain) Remove(v int) Domain {
	if v < 0 || v >= MaxDomainSize {
		return d
	}
	return d &^ (1 << uint(v))
}

// Intersect 返回两个域的交集
func (d Domain) Intersect(other Domain) Domain {
	return d & other
}

// Count 返回域中取值个数
func (d Domain) Count() int {
	return bits.OnesCount64(uint64(d))
}

// Empty 判断域是否为空
func (d Domain) Empty() bool {
	return d == 0
}

// First 返回域中最小的取值, 域为空时返回 -1
func (d Domain) First() int {
	if d == 0 {
		return -1
	}
	return bits.TrailingZeros64(uint64(d))
}

// Single 当且仅当域中只剩一个取值时返回该取值和 true
func (d Domain) Single() (int, bool) {
	if d != 0 && d&(d-1) == 0 {
		return bits.TrailingZeros64(uint64(d)), true
	}
	return -1, false
}

// Values 按升序返回域中全部取值
func (d Domain) Values() []int {
	vals := make([]int, 0, d.Count())
	for rest := uint64(d); rest != 0; rest &= rest - 1 {
		vals = append(vals, bits.TrailingZeros64(rest))
	}
	return vals
}
