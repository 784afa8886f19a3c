// Package keys is the single place key strings are derived. Every other
// component builds keys through these constructors and classifies stored
// keys through the Match helpers; nothing else string-concatenates key
// shapes. Namespace ids are opaque generated tokens, so the fixed
// separators cannot collide with id content.
package keys

import (
	"fmt"
	"regexp"
	"strings"
)

// Global registries and current-session scalars.
const (
	Accounts       = "accounts_meta"
	Shops          = "shops_map"
	CurrentAccount = "account"
	CurrentRole    = "role"
	CurrentShop    = "currentShopId"

	// AuthToken is owned by the out-of-scope API client but removed by
	// logout and deletion flows.
	AuthToken = "CFP_auth_token"

	DefaultShopID = "__default_shop__"

	MaxRecentCategories = 12
)

// One-shot migration flags.
const (
	FlagMultiShop = "__migrated_multi_shop__"
	FlagUIDPK     = "__migrated_uid_pk__"
)

// Legacy key shapes produced by earlier schema versions.
const (
	LegacyCurrentAccount = "current_account"
	LegacyProducts       = "products"
	LegacyFrequent       = "frequentProducts"
)

func Products(shopID string) string   { return fmt.Sprintf("shop_%s_products", shopID) }
func Categories(shopID string) string { return fmt.Sprintf("shop_%s_categories", shopID) }
func RecentCategories(shopID string) string {
	return fmt.Sprintf("shop_%s_recent_cat_ids", shopID)
}
func Records(shopID, productID string) string {
	return fmt.Sprintf("shop_%s_records_%s", shopID, productID)
}
func StageConfig(shopID, productID string) string {
	return fmt.Sprintf("stage_config:%s:%s", shopID, productID)
}
func StepOrder(shopID, productID, stageID string) string {
	return fmt.Sprintf("step_order:%s:%s:%s", shopID, productID, stageID)
}
func Notes(account string) string { return fmt.Sprintf("notes_%s", account) }

// LegacyRecords is the pre-multi-tenant record list key.
func LegacyRecords(productID string) string { return fmt.Sprintf("records_%s", productID) }

var (
	recordsRe   = regexp.MustCompile(`^shop_(.+?)_records_(.+)$`)
	stageCfgRe  = regexp.MustCompile(`^stage_config:(.+?):(.*)$`)
	stepOrderRe = regexp.MustCompile(`^step_order:(.+?):(.+?):(.+)$`)
	productsRe  = regexp.MustCompile(`^shop_(.+?)_products$`)
	shopDataRe  = regexp.MustCompile(`^shop_(.+?)_(products|categories|records_.+)$`)
	weirdRecRe  = regexp.MustCompile(`^shop__records_`)
	batchesRe   = regexp.MustCompile(`^shop_.*_batches$`)
	targetRe    = regexp.MustCompile(`^target:([^:]+):(.+)$`)
)

// MatchRecords reports the shop and product id of a record-list key.
func MatchRecords(key string) (shopID, productID string, ok bool) {
	m := recordsRe.FindStringSubmatch(key)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// MatchStageConfig reports the shop and product id of a stage-config key.
// The product id may be empty; such keys are invalid and purged on sight.
func MatchStageConfig(key string) (shopID, productID string, ok bool) {
	m := stageCfgRe.FindStringSubmatch(key)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// MatchStepOrder reports the shop, product and stage id of a step-order key.
func MatchStepOrder(key string) (shopID, productID, stageID string, ok bool) {
	m := stepOrderRe.FindStringSubmatch(key)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// MatchProducts reports the shop id of a product-list key.
func MatchProducts(key string) (shopID string, ok bool) {
	m := productsRe.FindStringSubmatch(key)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MatchShopData reports the shop id of any per-shop data key
// (products, categories, or a record list).
func MatchShopData(key string) (shopID string, ok bool) {
	m := shopDataRe.FindStringSubmatch(key)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsLegacyDoubleStageConfig recognizes the doubly-prefixed stage-config
// shape ("stage_config::<pid>" and friends) left by an earlier naming
// scheme. Always garbage, never merged.
func IsLegacyDoubleStageConfig(key string) bool {
	return strings.HasPrefix(key, "stage_config::")
}

// IsWeirdRecordsKey recognizes the blank-shop record shape "shop__records_*".
func IsWeirdRecordsKey(key string) bool { return weirdRecRe.MatchString(key) }

// IsBatchesKey recognizes the retired "_batches" suffix family.
func IsBatchesKey(key string) bool { return batchesRe.MatchString(key) }

// MatchTarget reports the shop and product id of a "target:" key kept by
// the out-of-scope goal-tracking UI; cleanup purges strays.
func MatchTarget(key string) (shopID, productID string, ok bool) {
	m := targetRe.FindStringSubmatch(key)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ShopPrefixes lists the prefixes a shop namespace can own, used by the
// destructive clear operations.
func ShopPrefixes(shopID string) []string {
	return []string{
		fmt.Sprintf("shop_%s_", shopID),
		fmt.Sprintf("stage_config:%s:", shopID),
		fmt.Sprintf("step_order:%s:", shopID),
		fmt.Sprintf("target:%s:", shopID),
	}
}
