package reply

// Template is a reply text plus its formatting mode.
type Template struct {
	Text     string
	Markdown bool
}

// Message is a rendered reply ready to send.
type Message struct {
	Text     string
	Markdown bool
}

// With renders the template against data.
func (t Template) With(data map[string]any) Message {
	return Message{Text: Render(t.Text, data), Markdown: t.Markdown}
}

var (
	Start = Template{Text: "Hi, ${name}!\n" +
		"You're using bot for vectorizing images.\n\n" +
		"Possible commands:\n" +
		"/start - start the bot\n" +
		"/settings - print current bot settings\n" +
		"/radius - set the radius setting\n" +
		"/simplify_tolerance - set the simplify_tolerance setting\n" +
		"/red_threshold - set the red_threshold setting"}

	Settings = Template{Markdown: true, Text: "Your bot settings provided below:\n\n" +
		"*radius* = ${radius}\n" +
		"*simplify_tolerance* = ${simplify_tolerance}\n" +
		"*red_threshold* = ${red_threshold}"}

	SettingUpdated = Template{Markdown: true, Text: "*${name}* setting set to *${value}*"}

	OutOfRange = Template{Markdown: true, Text: "*${name}* value should be between ${min} and ${max}"}

	WrongArgCount = Template{Markdown: true, Text: "Wrong number of arguments: *${count}*"}

	BadValue = Template{Markdown: true, Text: `"${value}" is not a correct value for *${name}* setting`}

	UnknownCommand = Template{Text: "Command not found"}

	WrongFileType = Template{Text: "Wrong type of file. Skipped"}

	JobAccepted = Template{Text: "Image downloaded and started to vectorize.\n" +
		"You'll receive a message with the result .zip archive in 5-10 minutes"}

	EmptyResult = Template{Text: "No dark pixels found in ${file}, nothing to vectorize"}

	Failed = Template{Text: "Could not vectorize ${file}: ${reason}"}
)
