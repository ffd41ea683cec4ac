// Package bench はワーカープール上の並列検索と並列ソートを計測する。
//
// Engine は乱数で生成した整数スライスに対して、回ごとに新しいプールを
// 作って検索とソートを実行し、フェーズごとの所要時間を集計する。
//
// # 各回の流れ
//
// - search: 専用プールで sortsearch.Search を実行し、プールを停止する
// - sort: 入力のコピーを専用プールで sortsearch.Sort し、整列を検証する
// - baseline（任意）: slices.Contains と slices.Sort で同じ処理を計測する
//
// # プリセット
//
// - quick: 短時間の動作確認
// - default: 100万要素、8ワーカー
// - large: 1000万要素
// - stress: 小さいタスクを大量に投入
//
// # 使用例
//
//	engine := bench.New(bench.DefaultConfig())
//	result, err := engine.Run(ctx, 42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report())
package bench
