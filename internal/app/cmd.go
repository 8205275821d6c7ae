package app

// Command はアプリケーションの起動モード（サブコマンド）。
type Command string

const (
	CommandServe       Command = "serve"
	CommandWorker      Command = "worker"
	CommandMigrate     Command = "migrate"
	CommandHealthcheck Command = "healthcheck"
)

// commandSummaries はサブコマンドごとの説明。起動ログに出力する。
var commandSummaries = map[Command]string{
	CommandServe:       "city portal web server",
	CommandWorker:      "expired session cleanup",
	CommandMigrate:     "apply pending database migrations",
	CommandHealthcheck: "check /health of the running server",
}

// ParseCommand は引数の先頭をサブコマンドとして解析する。
// 引数が無い場合はCommandServeを返す。
// 未知のサブコマンドはCommandServeとfalseを返すので、呼び出し側で警告すること。
func ParseCommand(args []string) (Command, bool) {
	if len(args) == 0 {
		return CommandServe, true
	}
	cmd := Command(args[0])
	if _, ok := commandSummaries[cmd]; !ok {
		return CommandServe, false
	}
	return cmd, true
}

// NeedsConfig は環境変数からの設定読み込みが必要かどうかを返す。
// healthcheckはdistrolessコンテナ内から起動中のサーバーを確認するだけなので不要。
func (c Command) NeedsConfig() bool {
	return c != CommandHealthcheck
}

// Summary はサブコマンドの説明を返す。
func (c Command) Summary() string {
	return commandSummaries[c]
}
