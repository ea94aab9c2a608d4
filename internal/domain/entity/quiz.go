package entity

// QuizQuestion 单选题
type QuizQuestion struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"` // 目前只有 "mcq"
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Rationale    string   `json:"rationale,omitempty"`
}

// Quiz 理解测验。由预言机按需生成，只在会话内存中短暂存在，
// 不随会话状态持久化。
type Quiz struct {
	ID             string         `json:"quizId"`
	Persona        string         `json:"persona"`
	Questions      []QuizQuestion `json:"questions"`
	PassMinCorrect int            `json:"passMinCorrect"`
}

// Grade 对答案评分，返回答对的题数。
// answers[i] 是第 i 题选中的选项下标；缺失或越界按答错计。
func (q *Quiz) Grade(answers []int) int {
	correct := 0
	for i, question := range q.Questions {
		if i >= len(answers) {
			break
		}
		if answers[i] == question.CorrectIndex {
			correct++
		}
	}
	return correct
}

// Passed 判断答对题数是否达到通过线
func (q *Quiz) Passed(correct int) bool {
	return correct >= q.PassMinCorrect
}
