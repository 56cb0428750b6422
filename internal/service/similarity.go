package service

import (
	"strings"

	"seed-eval/internal/model"
)

// AgreementScore 不假设双方 schema 的 0~1 一致度。按优先级：
//  1. 完全相等 -> 1.0
//  2. 双方都是映射 -> 值相等的共有键数 / max(双方键数)
//  3. 双方都是文本 -> 空白分词后的集合交集 / max(双方集合大小)
//  4. 其他 -> 0.0
//
// 错误形态输出按 {"error": msg} 映射参与比较。
func AgreementScore(a, b model.Value) float64 {
	if a.Equal(b) {
		return 1.0
	}

	am, aok := a.Mapping()
	bm, bok := b.Mapping()
	if aok && bok {
		if len(am) == 0 || len(bm) == 0 {
			return 0.0
		}
		matches := 0
		for k, av := range am {
			if bv, ok := bm[k]; ok && av.Equal(bv) {
				matches++
			}
		}
		if matches == 0 {
			return 0.0
		}
		return float64(matches) / float64(max(len(am), len(bm)))
	}

	at, aok := a.Text()
	bt, bok := b.Text()
	if aok && bok {
		aw := tokenSet(at)
		bw := tokenSet(bt)
		if len(aw) == 0 || len(bw) == 0 {
			return 0.0
		}
		common := 0
		for w := range aw {
			if _, ok := bw[w]; ok {
				common++
			}
		}
		return float64(common) / float64(max(len(aw), len(bw)))
	}

	return 0.0
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
