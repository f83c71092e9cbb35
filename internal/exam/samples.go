package exam

// sampleQuestions is the starter bank loaded when seeding is enabled and the
// store is empty.
func sampleQuestions() []QuestionInput {
	return []QuestionInput{
		{
			QuestionText:       "ถ้า 2x + 5 = 17 แล้วค่าของ x คือเท่าใด?",
			Options:            []string{"5", "6", "7", "8"},
			CorrectAnswerIndex: intPtr(1),
			Explanation:        "แก้สมการ: 2x = 17 - 5 = 12 → x = 12/2 = 6",
			Category:           string(CategoryGeneralAptitude),
			Difficulty:         string(DifficultyMedium),
		},
		{
			QuestionText:       "ผลลัพธ์ของ 3^2 + 4 × 2 เท่ากับเท่าใด?",
			Options:            []string{"15", "17", "19", "21"},
			CorrectAnswerIndex: intPtr(1),
			Explanation:        "ทำคูณก่อน: 4×2=8, แล้ว 3²=9 → 9+8=17",
			Category:           string(CategoryGeneralAptitude),
			Difficulty:         string(DifficultyEasy),
		},
		{
			QuestionText:       "คำว่า \"สุจริต\" หมายถึงอะไร?",
			Options:            []string{"ซื่อสัตย์", "ขี้โกง", "ขี้โมโห", "ขี้อาย"},
			CorrectAnswerIndex: intPtr(0),
			Explanation:        "\"สุจริต\" หมายถึง ซื่อสัตย์ ไม่ทุจริต",
			Category:           string(CategoryThai),
			Difficulty:         string(DifficultyEasy),
		},
		{
			QuestionText:       "หน่วยความจำหลักของคอมพิวเตอร์คืออะไร?",
			Options:            []string{"RAM", "Hard Disk", "USB Drive", "CD-ROM"},
			CorrectAnswerIndex: intPtr(0),
			Explanation:        "RAM (Random Access Memory) เป็นหน่วยความจำหลักที่ CPU ใช้ประมวลผลชั่วคราว",
			Category:           string(CategoryComputer),
			Difficulty:         string(DifficultyMedium),
		},
		{
			QuestionText: "Choose the correct sentence with proper grammar:",
			Options: []string{
				"She have been working here for five years.",
				"She has been working here for five years.",
				"She is been working here for five years.",
				"She was been working here for five years.",
			},
			CorrectAnswerIndex: intPtr(1),
			Explanation:        "ประโยคนี้ใช้ Present Perfect Continuous: Subject + has/have + been + V-ing + for/since + time และ \"She\" เป็นประธานเอกพจน์ จึงใช้ \"has\"",
			Category:           string(CategoryEnglish),
			Difficulty:         string(DifficultyMedium),
		},
	}
}

func intPtr(v int) *int {
	return &v
}
