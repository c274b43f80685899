package catalog

const userStatusQuery = `query userStatus {
  userStatus {
    isSignedIn
    isPremium
    username
  }
}`

const listQuery = `query problemsetQuestionList($categorySlug: String, $limit: Int, $skip: Int, $filters: QuestionListFilterInput) {
  problemsetQuestionList: questionList(categorySlug: $categorySlug, limit: $limit, skip: $skip, filters: $filters) {
    total: totalNum
    questions: data {
      frontendQuestionId: questionFrontendId
      title
      titleSlug
      difficulty
      paidOnly: isPaidOnly
      topicTags { name slug }
    }
  }
}`

const detailQuery = `query questionData($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    questionId
    questionFrontendId
    title
    titleSlug
    content
    isPaidOnly
    difficulty
    likes
    dislikes
    hints
    topicTags { name slug }
    codeSnippets { lang langSlug code }
  }
}`

const editorQuery = `query questionEditorData($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    questionId
    codeSnippets { lang langSlug code }
  }
}`

const communityQuery = `query communitySolutions($questionSlug: String!, $skip: Int!, $first: Int!, $orderBy: TopicSortingOption, $languageTags: [String!]) {
  questionSolutions(filters: {questionSlug: $questionSlug, skip: $skip, first: $first, orderBy: $orderBy, languageTags: $languageTags}) {
    totalNum
    solutions {
      id
      title
      post { content }
    }
  }
}`

const officialQuery = `query officialSolution($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    solution {
      id
      content
      paidOnly
      canSeeDetail
    }
  }
}`
