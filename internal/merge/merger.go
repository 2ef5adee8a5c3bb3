// Package merge folds categorized document extractions into one
// canonical claim record.
package merge

import (
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

// Policy tunes merge behavior. Fields listed in OverrideFields (dotted
// paths) take the last non-empty value seen instead of the first.
type Policy struct {
	OverrideFields []string
}

// Merger deep-merges extraction trees per partition and unions line
// items across all partitions.
type Merger struct {
	policy Policy
}

// New returns a Merger with the given policy.
func New(policy Policy) *Merger {
	return &Merger{policy: policy}
}

// Merge builds the canonical claim from categorized extractions.
// Documents merge in input order within each partition; the first
// non-empty scalar wins unless the path is an override field. When no
// approval document exists the approval partition is the
// approval_missing placeholder.
func (m *Merger) Merge(buckets map[model.Role][]model.DocumentExtraction) *model.MergedClaim {
	claim := &model.MergedClaim{
		Insurer:  m.mergeBucket(buckets[model.RoleInsurer]),
		Approval: m.mergeBucket(buckets[model.RoleApproval]),
		Hospital: m.mergeBucket(buckets[model.RoleHospital]),
	}

	if claim.Approval.IsEmpty() {
		claim.Approval = model.Mapping(map[string]model.Value{
			"approval_missing": model.Bool(true),
		})
	}

	m.unionLineItems(claim)
	return claim
}

func (m *Merger) mergeBucket(docs []model.DocumentExtraction) model.Value {
	merged := model.Mapping(nil)
	for _, doc := range docs {
		merged = m.mergeValue(merged, doc.Root.Clone(), "")
	}
	return merged
}

// mergeValue combines two trees at the given dotted path. Mappings
// recurse, sequences concatenate with dedup, scalars resolve by the
// first-wins rule.
func (m *Merger) mergeValue(dst, src model.Value, path string) model.Value {
	if dst.IsEmpty() {
		return src
	}
	if src.IsEmpty() {
		return dst
	}

	dstMap, dstIsMap := dst.AsMap()
	srcMap, srcIsMap := src.AsMap()
	if dstIsMap && srcIsMap {
		for k, sv := range srcMap {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			if dv, ok := dstMap[k]; ok {
				dstMap[k] = m.mergeValue(dv, sv, childPath)
			} else {
				dstMap[k] = sv
			}
		}
		return dst
	}

	dstSeq, dstIsSeq := dst.AsSeq()
	srcSeq, srcIsSeq := src.AsSeq()
	if dstIsSeq && srcIsSeq {
		return model.Sequence(dedupConcat(dstSeq, srcSeq))
	}

	if m.isOverride(path) {
		return src
	}
	return dst
}

func (m *Merger) isOverride(path string) bool {
	for _, f := range m.policy.OverrideFields {
		if strings.EqualFold(f, path) {
			return true
		}
	}
	return false
}

// dedupConcat concatenates two sequences keeping first occurrences.
// Line-item-shaped entries dedup by billing identity, everything else
// by structural equality.
func dedupConcat(a, b []model.Value) []model.Value {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]model.Value, 0, len(a)+len(b))
	for _, v := range append(append([]model.Value{}, a...), b...) {
		key := entryKey(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func entryKey(v model.Value) string {
	if li, ok := model.LineItemFromValue(v); ok {
		return "li:" + li.IdentityKey()
	}
	return "v:" + v.Canonical()
}

// unionLineItems gathers every line_items sequence from all partitions,
// dedups across partitions and rewrites the union into the hospital
// partition, which downstream checks treat as authoritative.
func (m *Merger) unionLineItems(claim *model.MergedClaim) {
	var all []model.Value
	for _, part := range []model.Value{claim.Hospital, claim.Insurer, claim.Approval} {
		for _, seq := range part.FindSequences("line_items") {
			all = dedupConcat(all, seq)
		}
	}
	if len(all) == 0 {
		return
	}

	// The union is the single authoritative copy. Source sequences are
	// removed so no partition carries a second, partial line_items list.
	for _, part := range []model.Value{claim.Hospital, claim.Insurer, claim.Approval} {
		part.Walk(func(node model.Value) {
			if m, ok := node.AsMap(); ok {
				delete(m, "line_items")
			}
		})
	}

	hospMap, ok := claim.Hospital.AsMap()
	if !ok {
		claim.Hospital = model.Mapping(nil)
		hospMap, _ = claim.Hospital.AsMap()
	}
	fin, ok := hospMap["financial_summary"]
	if !ok || fin.Kind() != model.KindMapping {
		fin = model.Mapping(nil)
		hospMap["financial_summary"] = fin
	}
	fin.Set("line_items", model.Sequence(all))

	for _, v := range all {
		if li, ok := model.LineItemFromValue(v); ok {
			claim.LineItems = append(claim.LineItems, li)
		}
	}
}
