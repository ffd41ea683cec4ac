package bench

import "poolsort/internal/sortsearch"

// QuickBench は短時間の動作確認用設定を返す
func QuickBench() Config {
	return Config{
		Name:          "quick",
		Description:   "Small input for quick verification",
		Elements:      100_000,
		Threads:       4,
		Runs:          3,
		Seed:          1,
		SortThreshold: sortsearch.DefaultThreshold,
		Baseline:      true,
	}
}

// LargeBench は大きな入力での計測設定を返す
func LargeBench() Config {
	return Config{
		Name:          "large",
		Description:   "Ten million ints on eight workers",
		Elements:      10_000_000,
		Threads:       8,
		Runs:          3,
		Seed:          1,
		SortThreshold: 8192,
		Baseline:      true,
	}
}

// StressBench は細かいタスクを大量に投入する設定を返す
// 閾値を下げてプールのキューに負荷をかける。
func StressBench() Config {
	return Config{
		Name:          "stress",
		Description:   "Many small tasks on many workers",
		Elements:      2_000_000,
		Threads:       32,
		Runs:          10,
		Seed:          7,
		SortThreshold: 256,
		Baseline:      false,
	}
}

var presets = map[string]func() Config{
	"quick":   QuickBench,
	"default": DefaultConfig,
	"large":   LargeBench,
	"stress":  StressBench,
}

// GetPreset は名前からプリセット設定を取得する
func GetPreset(name string) (Config, bool) {
	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"quick", "default", "large", "stress"}
}
