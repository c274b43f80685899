package dto

// JSONOfficialSolution is the official answer of a question.
type JSONOfficialSolution struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	PaidOnly     bool   `json:"paidOnly"`
	CanSeeDetail bool   `json:"canSeeDetail"`
}

// OfficialData is the data of the official answer query.
type OfficialData struct {
	Question *struct {
		Solution *JSONOfficialSolution `json:"solution"`
	} `json:"question"`
}

// JSONCommunitySolution is one community answer.
type JSONCommunitySolution struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Post  struct {
		Content string `json:"content"`
	} `json:"post"`
}

// CommunityData is the data of the community answer query.
type CommunityData struct {
	Solutions struct {
		TotalNum  int                     `json:"totalNum"`
		Solutions []JSONCommunitySolution `json:"solutions"`
	} `json:"questionSolutions"`
}

// UserStatusData is the data of the user status query.
type UserStatusData struct {
	UserStatus struct {
		IsSignedIn bool   `json:"isSignedIn"`
		IsPremium  bool   `json:"isPremium"`
		Username   string `json:"username"`
	} `json:"userStatus"`
}
